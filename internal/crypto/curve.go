package crypto

import "filippo.io/edwards25519"

// IsOnCurve reports whether d decompresses to an edwards25519 point.
// Non-canonical encodings of valid points count as on curve.
func IsOnCurve(d Digest) bool {
	var p edwards25519.Point
	_, err := p.SetBytes(d[:])
	return err == nil
}

// IsOffCurve is the PDA validity predicate. It is the expensive check and
// callers on the grinding path must only reach it after a prefix hit.
func IsOffCurve(d Digest) bool {
	return !IsOnCurve(d)
}
