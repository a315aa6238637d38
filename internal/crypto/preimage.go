package crypto

import (
	"encoding/binary"

	"github.com/sealbet/sealbet/internal/domain"
)

// SaltSize is the required length of a bet commitment salt.
const SaltSize = 32

// BetPreimage is the revealed content of a bet commitment. Its byte encoding
// is part of the wire contract: the digest the bettor submitted at commit
// time must have been computed over exactly these bytes.
type BetPreimage struct {
	Amount uint64
	Side   domain.Side
	Nonce  uint64
	Salt   [SaltSize]byte
}

// Bytes encodes the preimage as
// le64(amount) || sideByte || le64(nonce) || salt.
func (p BetPreimage) Bytes() []byte {
	buf := make([]byte, 0, 8+1+8+SaltSize)
	buf = binary.LittleEndian.AppendUint64(buf, p.Amount)
	buf = append(buf, p.Side.Byte())
	buf = binary.LittleEndian.AppendUint64(buf, p.Nonce)
	buf = append(buf, p.Salt[:]...)
	return buf
}

// ResolutionPreimage is the revealed content of a resolution commitment,
// encoded as le64(value) || le64(nonce).
type ResolutionPreimage struct {
	Value uint64
	Nonce uint64
}

func (p ResolutionPreimage) Bytes() []byte {
	buf := make([]byte, 0, 16)
	buf = binary.LittleEndian.AppendUint64(buf, p.Value)
	buf = binary.LittleEndian.AppendUint64(buf, p.Nonce)
	return buf
}
