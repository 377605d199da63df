package mixin

import "fmt"

// Span locates a region of source text. Line and Column are 1-based;
// Offset and End are byte offsets into the text the span was taken from.
type Span struct {
	Filename string
	Line     int
	Column   int
	Offset   int
	End      int
}

// IsValid reports whether the span carries a position.
func (s Span) IsValid() bool {
	return s.Line > 0
}

// To returns a span that starts at s and ends where other ends.
func (s Span) To(other Span) Span {
	out := s
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

func (s Span) String() string {
	switch {
	case !s.IsValid() && s.Filename == "":
		return "<unknown>"
	case !s.IsValid():
		return s.Filename
	case s.Column > 0:
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	default:
		return fmt.Sprintf("%s:%d", s.Filename, s.Line)
	}
}
