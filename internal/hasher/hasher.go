// Package hasher computes content digests used to confirm that two files
// with the same size really hold the same bytes.
package hasher

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

const (
	// QuickHashSize is how much of the file prefix a quick digest covers
	QuickHashSize = 64 * 1024
	// ChunkSize is the read buffer used when streaming a full digest
	ChunkSize = 64 * 1024
)

// Mode selects how much of a file is digested
type Mode int

const (
	ModeQuick Mode = iota
	ModeFull
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeQuick:
		return "quick"
	case ModeFull:
		return "full"
	default:
		return "unknown"
	}
}

// Algorithm names the content hash
type Algorithm string

const (
	AlgorithmMD5    Algorithm = "md5"
	AlgorithmXXHash Algorithm = "xxhash"
)

// ErrUnknownAlgorithm is returned by ParseAlgorithm for unsupported names
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// ParseAlgorithm maps a config value to an Algorithm. Empty means md5.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md5":
		return AlgorithmMD5, nil
	case "xxhash", "xxh64":
		return AlgorithmXXHash, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

// Digest is the lowercase hex encoding of a content hash
type Digest string

// Hasher digests files through an afero filesystem
type Hasher struct {
	fs        afero.Fs
	algorithm Algorithm
}

// New creates a Hasher. A nil fs means the OS filesystem.
func New(fs afero.Fs, algorithm Algorithm) *Hasher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if algorithm == "" {
		algorithm = AlgorithmMD5
	}
	return &Hasher{fs: fs, algorithm: algorithm}
}

// Algorithm returns the hash algorithm in use
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// Digest hashes the file at path. In ModeQuick only the first QuickHashSize
// bytes are read; in ModeFull the whole file is streamed in ChunkSize reads.
func (h *Hasher) Digest(path string, mode Mode) (Digest, error) {
	file, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("hasher: %s digest %s: %w", mode, path, err)
	}
	defer file.Close()

	sum := h.newHash()

	var r io.Reader = file
	if mode == ModeQuick {
		r = io.LimitReader(file, QuickHashSize)
	}

	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(sum, r, buf); err != nil {
		return "", fmt.Errorf("hasher: %s digest %s: %w", mode, path, err)
	}

	return Digest(hex.EncodeToString(sum.Sum(nil))), nil
}

func (h *Hasher) newHash() hash.Hash {
	if h.algorithm == AlgorithmXXHash {
		return xxhash.New()
	}
	return md5.New()
}
