// Package simhash detects near-duplicate page texts.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"sync"
	"unicode"
)

// shingleSize is the number of consecutive words hashed as one feature.
const shingleSize = 3

// Fingerprint computes a 64-bit SimHash of text over lowercase word
// shingles. Punctuation is ignored. Texts shorter than one shingle are
// hashed word by word.
func Fingerprint(text string) uint64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	add := func(feature string) {
		h := fnv.New64a()
		h.Write([]byte(feature))
		hash := h.Sum64()
		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	if len(words) < shingleSize {
		for _, w := range words {
			add(w)
		}
	} else {
		for i := 0; i+shingleSize <= len(words); i++ {
			add(strings.Join(words[i:i+shingleSize], " "))
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Set remembers fingerprints and rejects texts near an existing one.
// It is safe for concurrent use.
type Set struct {
	mu        sync.Mutex
	threshold int
	seen      []uint64
}

// NewSet creates a Set. A negative threshold accepts every text.
func NewSet(threshold int) *Set {
	return &Set{threshold: threshold}
}

// Add records text and reports true, or reports false without recording
// when text is a near-duplicate of an earlier one.
func (s *Set) Add(text string) bool {
	if s.threshold < 0 {
		return true
	}
	fp := Fingerprint(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, prev := range s.seen {
		if Similar(fp, prev, s.threshold) {
			return false
		}
	}
	s.seen = append(s.seen, fp)
	return true
}
