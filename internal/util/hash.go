package util

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// HashBytes returns the hex encoded SHA-256 digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashingReader wraps r and hashes everything read through it.
type HashingReader struct {
	r    io.Reader
	hash hash.Hash
	n    int64
}

// NewHashingReader creates a HashingReader over r.
func NewHashingReader(r io.Reader) *HashingReader {
	return &HashingReader{r: r, hash: sha256.New()}
}

// Read implements io.Reader.
func (h *HashingReader) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	if n > 0 {
		h.hash.Write(p[:n])
		h.n += int64(n)
	}
	return n, err
}

// Sum returns the hex digest of the bytes read so far.
func (h *HashingReader) Sum() string {
	return hex.EncodeToString(h.hash.Sum(nil))
}

// Size returns the number of bytes read so far.
func (h *HashingReader) Size() int64 {
	return h.n
}
