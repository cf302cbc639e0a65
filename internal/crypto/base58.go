package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Base58 alphabet (Bitcoin/Solana style - excludes 0, O, I, l)
const Base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const (
	// MaxAddressLen is the longest base58 text of a 32-byte value.
	MaxAddressLen = 44

	// 32 bytes are converted into nine limbs of five base58 digits each.
	limbBase   = 58 * 58 * 58 * 58 * 58
	limbDigits = 5
	numLimbs   = 9
	numDigits  = numLimbs * limbDigits
)

var (
	ErrInvalidPrefix = errors.New("prefix contains non-base58 characters")
	ErrEmptyPrefix   = errors.New("prefix must not be empty")
	ErrPrefixTooLong = fmt.Errorf("prefix longer than %d characters can never match", MaxAddressLen)
)

// pow58[i] = 58^i
var pow58 = [limbDigits]uint32{1, 58, 58 * 58, 58 * 58 * 58, 58 * 58 * 58 * 58}

// b58Index maps an ASCII byte to its digit value, or -1.
var b58Index [256]int8

func init() {
	for i := range b58Index {
		b58Index[i] = -1
	}
	for i := 0; i < len(Base58Alphabet); i++ {
		b58Index[Base58Alphabet[i]] = int8(i)
	}
}

// radix58 is the base58 form of a digest held as limbs, least significant
// limb first. Digits are extracted on demand, most significant first.
type radix58 struct {
	limbs [numLimbs]uint32
	zeros int // leading zero bytes, each rendered as '1'
	first int // index of the first significant digit in the 45-digit form
}

func (r *radix58) load(d *Digest) {
	for r.zeros = 0; r.zeros < len(d) && d[r.zeros] == 0; r.zeros++ {
	}

	var words [8]uint32
	for i := range words {
		words[i] = uint32(d[4*i])<<24 | uint32(d[4*i+1])<<16 | uint32(d[4*i+2])<<8 | uint32(d[4*i+3])
	}

	start := r.zeros / 4
	for k := 0; k < numLimbs; k++ {
		if start == len(words) {
			r.limbs[k] = 0
			continue
		}
		var rem uint64
		for i := start; i < len(words); i++ {
			cur := rem<<32 | uint64(words[i])
			words[i] = uint32(cur / limbBase)
			rem = cur % limbBase
		}
		r.limbs[k] = uint32(rem)
		for start < len(words) && words[start] == 0 {
			start++
		}
	}

	r.first = numDigits
	for k := numLimbs - 1; k >= 0; k-- {
		v := r.limbs[k]
		if v == 0 {
			continue
		}
		nd := 1
		for v >= 58 {
			v /= 58
			nd++
		}
		r.first = limbDigits*(numLimbs-1-k) + limbDigits - nd
		break
	}
}

// digit returns digit j of the 45-digit big-endian form.
func (r *radix58) digit(j int) byte {
	limb := r.limbs[numLimbs-1-j/limbDigits]
	return byte(limb / pow58[limbDigits-1-j%limbDigits] % 58)
}

// at returns the digit value of text position i.
func (r *radix58) at(i int) byte {
	if i < r.zeros {
		return 0
	}
	return r.digit(r.first + i - r.zeros)
}

func (r *radix58) len() int {
	return r.zeros + numDigits - r.first
}

// EncodeDigestString converts a digest to its address string.
// Only call when you need the string (e.g. for result output).
func EncodeDigestString(d Digest) string {
	return base58.Encode(d[:])
}

// HasBase58Prefix reports whether the base58 text of d starts with prefix,
// comparing one character at a time and stopping at the first mismatch.
func HasBase58Prefix(d Digest, prefix string) bool {
	digits, ok := prefixDigits(prefix)
	if !ok {
		return false
	}
	return hasDigitPrefix(&d, digits)
}

func hasDigitPrefix(d *Digest, digits []byte) bool {
	if len(digits) == 0 {
		return true
	}
	// The text starts with '1' exactly when the first byte is zero.
	if (digits[0] == 0) != (d[0] == 0) {
		return false
	}

	var r radix58
	r.load(d)
	if len(digits) > r.len() {
		return false
	}
	for i, want := range digits {
		if r.at(i) != want {
			return false
		}
	}
	return true
}

func prefixDigits(prefix string) ([]byte, bool) {
	digits := make([]byte, len(prefix))
	for i := 0; i < len(prefix); i++ {
		v := b58Index[prefix[i]]
		if v < 0 {
			return nil, false
		}
		digits[i] = byte(v)
	}
	return digits, true
}

// PrefixMatcher tests digests against a fixed, pre-decoded base58 prefix.
// It holds no mutable state and may be shared by all workers.
type PrefixMatcher struct {
	prefix string
	digits []byte
}

// NewPrefixMatcher validates prefix and pre-decodes it for the hot path.
func NewPrefixMatcher(prefix string) (*PrefixMatcher, error) {
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	if bad := InvalidBase58Chars(prefix); len(bad) > 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, string(bad))
	}
	if len(prefix) > MaxAddressLen {
		return nil, ErrPrefixTooLong
	}
	digits, _ := prefixDigits(prefix)
	return &PrefixMatcher{prefix: prefix, digits: digits}, nil
}

// Prefix returns the configured prefix.
func (m *PrefixMatcher) Prefix() string {
	return m.prefix
}

// Matches reports whether the address of d starts with the prefix.
func (m *PrefixMatcher) Matches(d *Digest) bool {
	return hasDigitPrefix(d, m.digits)
}

// IsValidBase58 checks if a string contains only valid Base58 characters.
func IsValidBase58(s string) bool {
	return len(InvalidBase58Chars(s)) == 0
}

// InvalidBase58Chars returns any invalid Base58 characters in the input.
func InvalidBase58Chars(s string) []rune {
	var invalid []rune
	for _, c := range s {
		if !strings.ContainsRune(Base58Alphabet, c) {
			invalid = append(invalid, c)
		}
	}
	return invalid
}
