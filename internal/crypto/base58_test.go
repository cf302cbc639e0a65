package crypto

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func edgeDigests() []Digest {
	var zero, ones, leading Digest
	for i := range ones {
		ones[i] = 0xff
	}
	for i := 1; i < len(leading); i++ {
		leading[i] = 0xff
	}
	out := []Digest{zero, ones, leading}

	// One to 31 leading zero bytes followed by a single non-zero byte.
	for z := 1; z < 32; z++ {
		var d Digest
		d[z] = 1
		out = append(out, d)
		var e Digest
		for i := z; i < 32; i++ {
			e[i] = 0xff
		}
		out = append(out, e)
	}
	return out
}

func TestEncodeDigestKnown(t *testing.T) {
	var zero, ones, leading Digest
	for i := range ones {
		ones[i] = 0xff
	}
	copy(leading[1:], ones[1:])

	require.Equal(t, "11111111111111111111111111111111", EncodeDigestString(zero))
	require.Equal(t, "JEKNVnkbo3jma5nREBBJCDoXFVeKkD56V3xKrvRmWxFG", EncodeDigestString(ones))
	require.Equal(t, "14uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofL", EncodeDigestString(leading))
	require.Len(t, EncodeDigestString(ones), MaxAddressLen)
}

// The limb decomposition behind PrefixMatcher must reproduce the library
// encoding digit for digit.
func TestRadixMatchesEncoding(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	digests := edgeDigests()
	for i := 0; i < 2000; i++ {
		var d Digest
		for j := range d {
			d[j] = byte(rng.Uint32())
		}
		digests = append(digests, d)
	}

	for _, d := range digests {
		full := base58.Encode(d[:])
		var r radix58
		r.load(&d)
		require.Equal(t, len(full), r.len(), "%x", d)
		text := make([]byte, r.len())
		for i := range text {
			text[i] = Base58Alphabet[r.at(i)]
		}
		require.Equal(t, full, string(text), "%x", d)

		m, err := NewPrefixMatcher(full)
		require.NoError(t, err)
		require.True(t, m.Matches(&d), "%x", d)
	}
}

func TestBase58RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var d Digest
		zeros := rapid.IntRange(0, 32).Draw(t, "zeros")
		copy(d[zeros:], rapid.SliceOfN(rapid.Byte(), 32-zeros, 32-zeros).Draw(t, "tail"))

		text := EncodeDigestString(d)
		raw, err := base58.Decode(text)
		if err != nil {
			t.Fatalf("decode %q: %v", text, err)
		}
		if !bytes.Equal(raw, d[:]) {
			t.Fatalf("round trip %x -> %q -> %x", d, text, raw)
		}

		lead := 0
		for lead < 32 && d[lead] == 0 {
			lead++
		}
		if got := len(text) - len(strings.TrimLeft(text, "1")); lead < 32 && got != lead {
			t.Fatalf("%d leading zero bytes gave %d leading '1's in %q", lead, got, text)
		}
	})
}

// The early-exit comparison must agree with strings.HasPrefix on the full
// encoding for every prefix length.
func TestHasBase58PrefixEquivalence(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	digests := edgeDigests()
	for len(digests) < 10000 {
		var d Digest
		for j := range d {
			d[j] = byte(rng.Uint32())
		}
		// Sprinkle in leading zeros.
		if rng.IntN(8) == 0 {
			for j := 0; j < 1+rng.IntN(3); j++ {
				d[j] = 0
			}
		}
		digests = append(digests, d)
	}

	for _, d := range digests {
		full := base58.Encode(d[:])
		for n := 1; n <= MaxAddressLen; n++ {
			var hit string
			if n <= len(full) {
				hit = full[:n]
			} else {
				hit = full + strings.Repeat("1", n-len(full))
			}
			if got := HasBase58Prefix(d, hit); got != strings.HasPrefix(full, hit) {
				t.Fatalf("digest %x prefix %q: got %v", d, hit, got)
			}

			// Same length, one character perturbed.
			miss := []byte(hit)
			pos := rng.IntN(n)
			miss[pos] = Base58Alphabet[(int(b58Index[miss[pos]])+1+rng.IntN(57))%58]
			if got := HasBase58Prefix(d, string(miss)); got != strings.HasPrefix(full, string(miss)) {
				t.Fatalf("digest %x prefix %q: got %v", d, miss, got)
			}
		}
	}
}

func TestHasBase58PrefixInvalid(t *testing.T) {
	var d Digest
	require.False(t, HasBase58Prefix(d, "10"))
	require.True(t, HasBase58Prefix(d, ""))
}

func TestNewPrefixMatcher(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		err    error
	}{
		{"valid", "PDA", nil},
		{"empty", "", ErrEmptyPrefix},
		{"zero digit", "P0A", ErrInvalidPrefix},
		{"capital o", "OOPS", ErrInvalidPrefix},
		{"capital i", "Inc", ErrInvalidPrefix},
		{"lower l", "lol", ErrInvalidPrefix},
		{"too long", strings.Repeat("z", MaxAddressLen+1), ErrPrefixTooLong},
		{"max length", strings.Repeat("z", MaxAddressLen), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewPrefixMatcher(tt.prefix)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				require.Nil(t, m)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.prefix, m.Prefix())
		})
	}
}

func TestPrefixMatcherMatches(t *testing.T) {
	var zero ProgramID
	d := HashPDA(zero, []byte("hello"), 255) // 2PjSSVURwJV4o9wz1BDVwwddvcUCuF1NKFpcQBF9emYJ

	for prefix, want := range map[string]bool{
		"2":     true,
		"2Pj":   true,
		"2PjSS": true,
		"2pj":   false,
		"1":     false,
		"3":     false,
		"2PjSSVURwJV4o9wz1BDVwwddvcUCuF1NKFpcQBF9emYJ": true,
	} {
		m, err := NewPrefixMatcher(prefix)
		require.NoError(t, err)
		require.Equal(t, want, m.Matches(&d), prefix)
	}

	var allZero Digest
	m, err := NewPrefixMatcher("111")
	require.NoError(t, err)
	require.True(t, m.Matches(&allZero))
}

func TestInvalidBase58Chars(t *testing.T) {
	require.Equal(t, []rune{'0', 'O', 'I', 'l'}, InvalidBase58Chars("a0bOcIdl"))
	require.Empty(t, InvalidBase58Chars(Base58Alphabet))
	require.True(t, IsValidBase58("abc"))
	require.False(t, IsValidBase58("abc!"))
}

func BenchmarkHasBase58Prefix(b *testing.B) {
	m, _ := NewPrefixMatcher("PDA")
	d := HashPDA(ProgramID{}, []byte("hello"), 255)
	for i := 0; i < b.N; i++ {
		d[31] = byte(i)
		m.Matches(&d)
	}
}
