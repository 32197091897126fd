package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Sha256Hex returns the SHA-256 digest of the input encoded as lowercase hex.
func Sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// HashLines digests an ordered list of strings. Every line is length-prefixed,
// so no two distinct lists share a digest even when lines contain separators.
func HashLines(lines []string) string {
	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(strconv.Itoa(len(line))))
		h.Write([]byte{':'})
		h.Write([]byte(line))
	}
	return hex.EncodeToString(h.Sum(nil))
}
