package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/sealbet/sealbet/internal/domain"
)

func TestBetPreimage_Bytes(t *testing.T) {
	var salt [SaltSize]byte
	for i := range salt {
		salt[i] = byte(i)
	}
	p := BetPreimage{Amount: 1000, Side: domain.SideYes, Nonce: 7, Salt: salt}
	got := p.Bytes()

	if len(got) != 8+1+8+SaltSize {
		t.Fatalf("len=%d want %d", len(got), 8+1+8+SaltSize)
	}
	if binary.LittleEndian.Uint64(got[0:8]) != 1000 {
		t.Fatalf("amount bytes wrong: %x", got[0:8])
	}
	if got[8] != 0x01 {
		t.Fatalf("side byte=%#x want 0x01", got[8])
	}
	if binary.LittleEndian.Uint64(got[9:17]) != 7 {
		t.Fatalf("nonce bytes wrong: %x", got[9:17])
	}
	if !bytes.Equal(got[17:], salt[:]) {
		t.Fatalf("salt bytes wrong")
	}
}

func TestBetPreimage_SideNo(t *testing.T) {
	p := BetPreimage{Side: domain.SideNo}
	if p.Bytes()[8] != 0x00 {
		t.Fatalf("side byte=%#x want 0x00", p.Bytes()[8])
	}
}

func TestResolutionPreimage_Bytes(t *testing.T) {
	p := ResolutionPreimage{Value: 42, Nonce: 99}
	got := p.Bytes()
	if len(got) != 16 {
		t.Fatalf("len=%d want 16", len(got))
	}
	if binary.LittleEndian.Uint64(got[0:8]) != 42 || binary.LittleEndian.Uint64(got[8:16]) != 99 {
		t.Fatalf("encoding wrong: %x", got)
	}
}

func TestSHA256Hasher(t *testing.T) {
	data := []byte("commitment")
	want := sha256.Sum256(data)
	if got := (SHA256Hasher{}).Sum(data); got != want {
		t.Fatalf("sha256 mismatch")
	}
}

func TestKeccak256Hasher_DiffersFromSHA256(t *testing.T) {
	data := []byte("commitment")
	if (Keccak256Hasher{}).Sum(data) == (SHA256Hasher{}).Sum(data) {
		t.Fatalf("keccak256 output should differ from sha256")
	}
}

func TestNewHasher(t *testing.T) {
	if _, ok := NewHasher("keccak256").(Keccak256Hasher); !ok {
		t.Fatalf("keccak256 scheme not selected")
	}
	if _, ok := NewHasher("sha256").(SHA256Hasher); !ok {
		t.Fatalf("sha256 scheme not selected")
	}
	if _, ok := NewHasher("unknown").(SHA256Hasher); !ok {
		t.Fatalf("unknown scheme should fall back to sha256")
	}
}
