// Package imagehash computes and compares perceptual hashes for listing
// photos. It wraps github.com/corona10/goimagehash behind a small surface so
// the duplicate detector can treat hashing as an optional capability.
package imagehash

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"github.com/rotisserie/eris"

	"github.com/bazarlink/match-cli/internal/config"
)

// DistanceUnknown is returned when two hashes cannot be compared (empty,
// malformed, or different schemes). Callers must treat it as "no comparison
// possible", never as distance zero.
const DistanceUnknown = -1

// Algorithm selects the hashing scheme. The duplicate detector only requires
// the perceptual hash; the average and difference variants are kept for
// offline tooling.
type Algorithm string

const (
	AlgorithmPerception Algorithm = "phash"
	AlgorithmAverage    Algorithm = "ahash"
	AlgorithmDifference Algorithm = "dhash"
)

// DefaultHashConfig returns the production hashing parameters: a 16x16
// (256-bit) fingerprint compared at hamming distance 10.
func DefaultHashConfig() config.HashConfig {
	return config.HashConfig{
		Size:             16,
		HammingThreshold: 10,
	}
}

// Hasher computes and compares perceptual hashes with fixed parameters.
type Hasher struct {
	cfg config.HashConfig
}

// New creates a Hasher, filling in defaults for unset parameters.
func New(cfg config.HashConfig) *Hasher {
	def := DefaultHashConfig()
	if cfg.Size <= 0 {
		cfg.Size = def.Size
	}
	if cfg.HammingThreshold <= 0 {
		cfg.HammingThreshold = def.HammingThreshold
	}
	return &Hasher{cfg: cfg}
}

// Available reports that the hashing runtime is usable.
func (h *Hasher) Available() bool { return true }

// Threshold returns the hamming distance at or below which two hashes count
// as the same image.
func (h *Hasher) Threshold() int { return h.cfg.HammingThreshold }

// ComputeHash returns the perceptual hash string for an encoded image
// (JPEG or PNG).
func (h *Hasher) ComputeHash(data []byte) (string, error) {
	return h.ComputeHashWith(data, AlgorithmPerception)
}

// ComputeHashWith returns the hash string for an encoded image under the
// given algorithm.
func (h *Hasher) ComputeHashWith(data []byte, alg Algorithm) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", eris.Wrap(err, "imagehash: decode image")
	}

	var hash *goimagehash.ExtImageHash
	switch alg {
	case AlgorithmPerception:
		hash, err = goimagehash.ExtPerceptionHash(img, h.cfg.Size, h.cfg.Size)
	case AlgorithmAverage:
		hash, err = goimagehash.ExtAverageHash(img, h.cfg.Size, h.cfg.Size)
	case AlgorithmDifference:
		hash, err = goimagehash.ExtDifferenceHash(img, h.cfg.Size, h.cfg.Size)
	default:
		return "", eris.Errorf("imagehash: unknown algorithm %q", alg)
	}
	if err != nil {
		return "", eris.Wrapf(err, "imagehash: compute %s", alg)
	}

	return hash.ToString(), nil
}

// HammingDistance returns the bit-difference count between two hash strings
// of the same scheme, or DistanceUnknown when either is empty or malformed.
func (h *Hasher) HammingDistance(a, b string) int {
	if a == "" || b == "" {
		return DistanceUnknown
	}
	hashA, err := goimagehash.ExtImageHashFromString(a)
	if err != nil {
		return DistanceUnknown
	}
	hashB, err := goimagehash.ExtImageHashFromString(b)
	if err != nil {
		return DistanceUnknown
	}
	d, err := hashA.Distance(hashB)
	if err != nil {
		return DistanceUnknown
	}
	return d
}

// AreSimilar reports whether two hashes are within the configured hamming
// threshold.
func (h *Hasher) AreSimilar(a, b string) bool {
	d := h.HammingDistance(a, b)
	return d >= 0 && d <= h.cfg.HammingThreshold
}

// HasAnyMatch reports whether any cross pair of the two hash lists is within
// the threshold, short-circuiting on the first hit.
func (h *Hasher) HasAnyMatch(hashesA, hashesB []string) bool {
	for _, a := range hashesA {
		for _, b := range hashesB {
			if h.AreSimilar(a, b) {
				return true
			}
		}
	}
	return false
}

// Disabled is the hasher used when perceptual hashing is unavailable. All
// comparisons report no image evidence and hashing requests fail.
type Disabled struct{}

// Available reports that no hashing runtime is present.
func (Disabled) Available() bool { return false }

// ComputeHash always fails.
func (Disabled) ComputeHash([]byte) (string, error) {
	return "", eris.New("imagehash: hashing unavailable")
}

// HammingDistance always reports that no comparison is possible.
func (Disabled) HammingDistance(string, string) int { return DistanceUnknown }

// AreSimilar always reports no match.
func (Disabled) AreSimilar(string, string) bool { return false }

// HasAnyMatch always reports no match.
func (Disabled) HasAnyMatch([]string, []string) bool { return false }
