// Package commitment implements the shared two-phase commit-reveal check used
// by both bet and resolution flows: a reveal is valid only inside its window
// and only when its preimage reproduces the committed digest.
package commitment

import (
	"crypto/subtle"
	"time"

	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
)

// Windows are the timing bounds of a commit-reveal round: reveals are
// accepted from committedAt+Commit through committedAt+Commit+Reveal,
// inclusive on both ends.
type Windows struct {
	Commit time.Duration
	Reveal time.Duration
}

// Verifier checks reveals against stored commitments.
type Verifier struct {
	hasher crypto.Hasher
	win    Windows
}

// NewVerifier creates a Verifier over the given hasher and windows.
func NewVerifier(hasher crypto.Hasher, win Windows) *Verifier {
	return &Verifier{hasher: hasher, win: win}
}

// Windows returns the verifier's timing bounds.
func (v *Verifier) Windows() Windows { return v.win }

// Verify validates a reveal of c with the given preimage at now. It returns
// nil when the reveal may proceed, or exactly one of the domain commitment
// errors otherwise. Verify does not mutate c; consuming the commitment is the
// store's job.
func (v *Verifier) Verify(c domain.Commitment, preimage []byte, now time.Time) error {
	if c.Revealed {
		return domain.ErrAlreadyRevealed
	}

	opens := c.CommittedAt.Add(v.win.Commit)
	closes := opens.Add(v.win.Reveal)
	if now.Before(opens) {
		return domain.ErrRevealTooEarly
	}
	if now.After(closes) {
		return domain.ErrRevealTooLate
	}

	digest := v.hasher.Sum(preimage)
	if subtle.ConstantTimeCompare(digest[:], c.Digest[:]) != 1 {
		return domain.ErrInvalidCommitment
	}
	return nil
}
