package crypto

import (
	stdsha256 "crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustHex(t *testing.T, s string) Digest {
	t.Helper()
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, raw, 32)
	var d Digest
	copy(d[:], raw)
	return d
}

func u64Seed(n uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return b[:]
}

func TestHashPDAVectors(t *testing.T) {
	var zero ProgramID
	tests := []struct {
		name    string
		seed    []byte
		bump    byte
		digest  string
		address string
	}{
		{"hello 255", []byte("hello"), 255, "14ae734176443d761048e2d88bd6ff04c698c9ccd94bf0040a12facba310994f", "2PjSSVURwJV4o9wz1BDVwwddvcUCuF1NKFpcQBF9emYJ"},
		{"hello 254", []byte("hello"), 254, "654a31d86cd3bca49dde329fa955af8b5a3ee218681ec6aad41bb8442ae60063", "7pPo9ZviAFaJk2Ts5zX9rJbhAFtq6Xoin5uohzWRgwuC"},
		{"u64 42", u64Seed(42), 255, "d10276bcf891e90769f0c3450a003bd4c05b1103cd0ee4d4edf2261daf93c3b3", "F4tPVimhkoQEp8PUNfk6sNi5RCSDd4br5rLM31CWnHMt"},
		{"empty seed", nil, 255, "b0c9f865f667ac83cd9baae9172d7aa225bf874697ef8a4f5bef48191773f6fe", "Cu7NwqCXSmsR5vgGA3Vw9uYVViPi3kQvkbKByVQ8nPY9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := HashPDA(zero, tt.seed, tt.bump)
			require.Equal(t, mustHex(t, tt.digest), d)
			require.Equal(t, tt.address, d.String())
		})
	}
}

func TestHasherReuse(t *testing.T) {
	var zero ProgramID
	h := NewHasher(zero, []byte("hello"))
	require.Equal(t, HashPDA(zero, []byte("hello"), 253), h.Digest(253))

	// Longer seed, then back to a shorter one: layout must follow.
	h.Reset(u64Seed(42))
	require.Equal(t, HashPDA(zero, u64Seed(42), 255), h.Digest(255))
	require.Equal(t, u64Seed(42), h.Seed())

	h.Reset(nil)
	require.Equal(t, HashPDA(zero, nil, 255), h.Digest(255))
}

func TestHasherRejectsLongSeed(t *testing.T) {
	require.Panics(t, func() {
		NewHasher(ProgramID{}, make([]byte, MaxSeedLen+1))
	})
}

func TestHasherDeterminism(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var pid ProgramID
		copy(pid[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "program"))
		seed := rapid.SliceOfN(rapid.Byte(), 0, MaxSeedLen).Draw(t, "seed")
		bump := rapid.Byte().Draw(t, "bump")

		preimage := append(append(append(append([]byte{}, seed...), bump), pid[:]...), PDAMarker...)
		want := Digest(stdsha256.Sum256(preimage))

		h := NewHasher(pid, seed)
		if got := h.Digest(bump); got != want {
			t.Fatalf("hasher digest %x, want %x", got, want)
		}
		if got := h.Digest(bump); got != want {
			t.Fatalf("second digest %x, want %x", got, want)
		}
		if got := HashPDA(pid, seed, bump); got != want {
			t.Fatalf("HashPDA %x, want %x", got, want)
		}
	})
}

func TestParseProgramID(t *testing.T) {
	id, err := ParseProgramID("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	require.NoError(t, err)
	require.Equal(t, "06ddf6e1d765a193d9cbe146ceeb79ac1cb485ed5f5b37913a8cf5857eff00a9", hex.EncodeToString(id[:]))
	require.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", id.String())

	id, err = ParseProgramID("11111111111111111111111111111111")
	require.NoError(t, err)
	require.Equal(t, ProgramID{}, id)

	for _, bad := range []string{"", "0OIl", "abc", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DAx"} {
		_, err := ParseProgramID(bad)
		require.ErrorIs(t, err, ErrInvalidProgramID, bad)
	}
}

func TestFindProgramAddress(t *testing.T) {
	var zero ProgramID
	token, err := ParseProgramID("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	require.NoError(t, err)

	tests := []struct {
		name    string
		program ProgramID
		seed    []byte
		bump    byte
		address string
	}{
		{"hello", zero, []byte("hello"), 255, "2PjSSVURwJV4o9wz1BDVwwddvcUCuF1NKFpcQBF9emYJ"},
		{"u64 42", zero, u64Seed(42), 252, "2PbVdjWbxZarV2jkPTNqRq5qaE14En49k3FZdiF25grQ"},
		{"u64 11", zero, u64Seed(11), 249, "CfZTxBfJ3mfH4kZaKBu2Nnzt5oxmsed2w5FqKdKkAuy2"},
		{"token vanity", token, []byte("vanity"), 254, "2Nuo1N8dYjScErxTdbDAcSzoqbLNERhZMuqfU6p5BR6L"},
		{"token u64 7", token, u64Seed(7), 255, "BEgEVVn4jWTWBpzdEmCNY3s8AZMuH522MYaAL1eDt2Zd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, bump, err := FindProgramAddress([][]byte{tt.seed}, tt.program)
			require.NoError(t, err)
			require.Equal(t, tt.bump, bump)
			require.Equal(t, tt.address, d.String())

			cb, cd, ok := CanonicalPDA(tt.program, tt.seed)
			require.True(t, ok)
			require.Equal(t, bump, cb)
			require.Equal(t, d, cd)
			require.Equal(t, HashPDA(tt.program, tt.seed, cb), cd)
		})
	}
}

func TestCreateProgramAddress(t *testing.T) {
	var zero ProgramID

	// bump 254 for "hello" lands on the curve
	_, err := CreateProgramAddress([][]byte{[]byte("hello"), {254}}, zero)
	require.ErrorIs(t, err, ErrInvalidSeeds)

	d, err := CreateProgramAddress([][]byte{[]byte("hello"), {253}}, zero)
	require.NoError(t, err)
	require.Equal(t, "737RF5ukbGhEdP23xftuHAHMhWPwNtAmpycrfY5YBTM9", d.String())

	// Split seeds hash the same as their concatenation.
	d, err = CreateProgramAddress([][]byte{[]byte("he"), []byte("llo"), {255}}, zero)
	require.NoError(t, err)
	require.Equal(t, HashPDA(zero, []byte("hello"), 255), d)

	_, err = CreateProgramAddress([][]byte{make([]byte, MaxSeedLen+1)}, zero)
	require.ErrorIs(t, err, ErrMaxSeedLengthExceeded)

	_, err = CreateProgramAddress(make([][]byte, MaxSeeds+1), zero)
	require.ErrorIs(t, err, ErrMaxSeedsExceeded)

	_, _, err = FindProgramAddress(make([][]byte, MaxSeeds), zero)
	require.ErrorIs(t, err, ErrMaxSeedsExceeded)
}
