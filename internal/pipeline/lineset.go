package pipeline

import (
	"github.com/zeebo/blake3"
)

// LineSet remembers which lines were already imported. Only 32-byte BLAKE3
// digests are kept, so memory does not grow with line length.
type LineSet struct {
	seen map[[32]byte]struct{}
}

// NewLineSet creates an empty set.
func NewLineSet() *LineSet {
	return &LineSet{seen: make(map[[32]byte]struct{})}
}

// Add records line and reports whether it was new.
func (s *LineSet) Add(line string) bool {
	sum := blake3.Sum256([]byte(line))
	if _, ok := s.seen[sum]; ok {
		return false
	}
	s.seen[sum] = struct{}{}
	return true
}

// Has reports whether line was added before.
func (s *LineSet) Has(line string) bool {
	_, ok := s.seen[blake3.Sum256([]byte(line))]
	return ok
}

// Len returns the number of distinct lines.
func (s *LineSet) Len() int {
	return len(s.seen)
}
