package ppgagent

import "fmt"

// A ShapeError is returned when two collections which must
// line up element-for-element have different sizes.
type ShapeError struct {
	// Name describes the mismatched collection.
	Name string

	Expected int
	Actual   int
}

// Error returns a human-readable description of the
// mismatch.
func (s *ShapeError) Error() string {
	return fmt.Sprintf("%s: expected size %d but got %d", s.Name, s.Expected,
		s.Actual)
}
