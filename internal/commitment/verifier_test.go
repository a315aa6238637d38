package commitment

import (
	"errors"
	"testing"
	"time"

	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
)

var (
	committedAt  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testWindows  = Windows{Commit: 5 * time.Minute, Reveal: time.Hour}
	testPreimage = []byte("amount and salt")
)

func newTestVerifier() *Verifier {
	return NewVerifier(crypto.SHA256Hasher{}, testWindows)
}

func testCommitment() domain.Commitment {
	return domain.Commitment{
		Digest:      crypto.SHA256Hasher{}.Sum(testPreimage),
		CommittedAt: committedAt,
	}
}

func TestVerify_WindowBoundaries(t *testing.T) {
	v := newTestVerifier()
	c := testCommitment()
	opens := committedAt.Add(testWindows.Commit)
	closes := opens.Add(testWindows.Reveal)

	cases := []struct {
		name string
		now  time.Time
		want error
	}{
		{"before window opens", opens.Add(-time.Nanosecond), domain.ErrRevealTooEarly},
		{"at open, inclusive", opens, nil},
		{"mid window", opens.Add(30 * time.Minute), nil},
		{"at close, inclusive", closes, nil},
		{"after window closes", closes.Add(time.Nanosecond), domain.ErrRevealTooLate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Verify(c, testPreimage, tc.now)
			if !errors.Is(err, tc.want) && err != tc.want {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}
}

func TestVerify_BitFlippedPreimage(t *testing.T) {
	v := newTestVerifier()
	c := testCommitment()

	flipped := append([]byte(nil), testPreimage...)
	flipped[0] ^= 0x01

	err := v.Verify(c, flipped, committedAt.Add(testWindows.Commit))
	if !errors.Is(err, domain.ErrInvalidCommitment) {
		t.Fatalf("err=%v want ErrInvalidCommitment", err)
	}
}

func TestVerify_AlreadyRevealed(t *testing.T) {
	v := newTestVerifier()
	c := testCommitment()
	c.Revealed = true

	err := v.Verify(c, testPreimage, committedAt.Add(testWindows.Commit))
	if !errors.Is(err, domain.ErrAlreadyRevealed) {
		t.Fatalf("err=%v want ErrAlreadyRevealed", err)
	}
}

func TestVerify_RevealedWinsOverTiming(t *testing.T) {
	// A consumed commitment reports ErrAlreadyRevealed even outside the
	// window, so callers can distinguish replays from late reveals.
	v := newTestVerifier()
	c := testCommitment()
	c.Revealed = true

	err := v.Verify(c, testPreimage, committedAt)
	if !errors.Is(err, domain.ErrAlreadyRevealed) {
		t.Fatalf("err=%v want ErrAlreadyRevealed", err)
	}
}

func TestCommitmentLive(t *testing.T) {
	c := testCommitment()
	expiry := committedAt.Add(testWindows.Commit + testWindows.Reveal)

	if !c.Live(testWindows.Commit, testWindows.Reveal, expiry) {
		t.Fatalf("commitment should be live at expiry instant")
	}
	if c.Live(testWindows.Commit, testWindows.Reveal, expiry.Add(time.Nanosecond)) {
		t.Fatalf("commitment should be inert past expiry")
	}
	c.Revealed = true
	if c.Live(testWindows.Commit, testWindows.Reveal, committedAt) {
		t.Fatalf("revealed commitment is never live")
	}
}
