package crypto

import (
	"errors"
	"hash"

	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
)

const (
	// PDAMarker is the domain-separation tag appended to every PDA preimage.
	PDAMarker = "ProgramDerivedAddress"

	// MaxSeedLen is the longest single seed the runtime accepts.
	MaxSeedLen = 32
	// MaxSeeds is the most seeds (bump included) a derivation may use.
	MaxSeeds = 16

	// Preimage layout: seed (<=32) + bump (1) + program id (32) + marker (21)
	ProgramIDLen   = 32
	MaxPreimageLen = MaxSeedLen + 1 + ProgramIDLen + len(PDAMarker)
)

var (
	ErrInvalidProgramID      = errors.New("program id must be 32 bytes of base58")
	ErrMaxSeedLengthExceeded = errors.New("length of the seed is too long for address generation")
	ErrMaxSeedsExceeded      = errors.New("too many seeds for address generation")
	ErrInvalidSeeds          = errors.New("provided seeds do not result in a valid address")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")
)

// Digest is a raw 32-byte SHA-256 output, i.e. a candidate address.
type Digest [32]byte

// String returns the base58 address text.
func (d Digest) String() string {
	return EncodeDigestString(d)
}

// ProgramID identifies the program that owns derived addresses.
type ProgramID [ProgramIDLen]byte

func (p ProgramID) String() string {
	return EncodeDigestString(Digest(p))
}

// ParseProgramID decodes a base58 program id.
func ParseProgramID(s string) (ProgramID, error) {
	var id ProgramID
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != ProgramIDLen {
		return id, ErrInvalidProgramID
	}
	copy(id[:], raw)
	return id, nil
}

// Hasher computes PDA digests for a single seed over many bumps.
// The preimage buffer and hash state are reused, so Digest does not allocate.
// A Hasher is not safe for concurrent use.
type Hasher struct {
	h         hash.Hash
	programID ProgramID
	buf       [MaxPreimageLen]byte
	sum       [32]byte
	seedLen   int
	n         int
}

// NewHasher returns a hasher primed with programID and seed.
func NewHasher(programID ProgramID, seed []byte) *Hasher {
	h := &Hasher{
		h:         sha256.New(),
		programID: programID,
		seedLen:   -1,
	}
	h.Reset(seed)
	return h
}

// Reset swaps in a new seed. The program id and marker are only rewritten
// when the seed length changes. Panics if seed exceeds MaxSeedLen.
func (h *Hasher) Reset(seed []byte) {
	if len(seed) > MaxSeedLen {
		panic(ErrMaxSeedLengthExceeded)
	}
	copy(h.buf[:], seed)
	if len(seed) == h.seedLen {
		return
	}
	h.seedLen = len(seed)
	off := h.seedLen + 1
	off += copy(h.buf[off:], h.programID[:])
	off += copy(h.buf[off:], PDAMarker)
	h.n = off
}

// Seed returns the seed currently loaded. The slice aliases internal state.
func (h *Hasher) Seed() []byte {
	return h.buf[:h.seedLen]
}

// Digest hashes seed ‖ bump ‖ program id ‖ marker.
func (h *Hasher) Digest(bump byte) Digest {
	h.buf[h.seedLen] = bump
	h.h.Reset()
	h.h.Write(h.buf[:h.n])
	var d Digest
	copy(d[:], h.h.Sum(h.sum[:0]))
	return d
}

// HashPDA is the one-shot form of Hasher.Digest.
func HashPDA(programID ProgramID, seed []byte, bump byte) Digest {
	return NewHasher(programID, seed).Digest(bump)
}

// CreateProgramAddress derives the address for the given seeds, returning
// ErrInvalidSeeds when the digest lands on the curve.
func CreateProgramAddress(seeds [][]byte, programID ProgramID) (Digest, error) {
	if len(seeds) > MaxSeeds {
		return Digest{}, ErrMaxSeedsExceeded
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Digest{}, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(PDAMarker))

	var d Digest
	copy(d[:], h.Sum(nil))
	if IsOnCurve(d) {
		return Digest{}, ErrInvalidSeeds
	}
	return d, nil
}

// FindProgramAddress returns the canonical address for seeds: the first
// off-curve digest scanning bump from 255 down to 1.
func FindProgramAddress(seeds [][]byte, programID ProgramID) (Digest, byte, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	withBump[len(seeds)] = bump

	for b := 255; b > 0; b-- {
		bump[0] = byte(b)
		d, err := CreateProgramAddress(withBump, programID)
		switch {
		case err == nil:
			return d, byte(b), nil
		case errors.Is(err, ErrInvalidSeeds):
			continue
		default:
			return Digest{}, 0, err
		}
	}
	return Digest{}, 0, ErrNoViableBump
}

// CanonicalPDA is the single-seed reference derivation used to cross-check
// grinder output. ok is false only if no bump in 255..1 is off curve.
func CanonicalPDA(programID ProgramID, seed []byte) (bump byte, d Digest, ok bool) {
	d, bump, err := FindProgramAddress([][]byte{seed}, programID)
	if err != nil {
		return 0, Digest{}, false
	}
	return bump, d, true
}
