package worker

import (
	"iter"

	"github.com/screa/pda-vanity-grinder/internal/crypto"
	"github.com/screa/pda-vanity-grinder/pkg/types"
)

// MaxBump is where every window starts. Scanning runs downward from here.
const MaxBump = 255

// clampWindow keeps size within 1..255 so bump 0 is never reached.
func clampWindow(size int) int {
	return min(max(size, 1), MaxBump)
}

// Window lazily scans bumps 255 down to 256-size for the seed loaded in h
// and yields only the bumps whose address passes the prefix filter,
// highest bump first. The curve is never consulted here.
func Window(h *crypto.Hasher, m *crypto.PrefixMatcher, size int) iter.Seq2[byte, crypto.Digest] {
	size = clampWindow(size)
	return func(yield func(byte, crypto.Digest) bool) {
		for i := 0; i < size; i++ {
			bump := byte(MaxBump - i)
			d := h.Digest(bump)
			if !m.Matches(&d) {
				continue
			}
			if !yield(bump, d) {
				return
			}
		}
	}
}

// CollectWindow is the eager form of Window used on the hot path. Results
// are appended to dst[:0] so a worker can reuse one buffer for every seed.
func CollectWindow(h *crypto.Hasher, m *crypto.PrefixMatcher, size int, dst []types.Candidate) []types.Candidate {
	dst = dst[:0]
	size = clampWindow(size)
	for i := 0; i < size; i++ {
		bump := byte(MaxBump - i)
		d := h.Digest(bump)
		if m.Matches(&d) {
			dst = append(dst, types.Candidate{Bump: bump, Digest: d})
		}
	}
	return dst
}
