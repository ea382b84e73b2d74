package protocol

// Matcher looks for a reply template in a byte stream.
//
// A byte advances the match cursor when it equals the template byte at the
// cursor, or the template byte is zero. Any other byte is dropped and the
// cursor stays where it is, it is NOT rewound to the start of the template.
// So a reply split by noise still matches, and noise that happens to fit
// the next expected position is taken as part of the reply.
type Matcher struct {
	pattern Frame
	pos     int
}

// NewMatcher creates a Matcher for the template.
func NewMatcher(pattern Frame) *Matcher {
	return &Matcher{pattern: pattern}
}

// Pattern returns the template being matched.
func (m *Matcher) Pattern() Frame {
	return m.pattern
}

// Matched indicates the whole template has been seen.
func (m *Matcher) Matched() bool {
	return m.pos >= FrameSize
}

// Feed consumes one byte and reports whether the template is complete.
func (m *Matcher) Feed(b byte) bool {
	if m.pos < FrameSize {
		if expected := m.pattern[m.pos]; b == expected || expected == 0 {
			m.pos++
		}
	}
	return m.Matched()
}

// Reset rewinds the cursor.
func (m *Matcher) Reset() {
	m.pos = 0
}

// MatchBytes feeds bytes until the template completes and returns how
// many bytes were consumed, or -1 if the bytes ran out first.
func (m *Matcher) MatchBytes(p []byte) int {
	for n, b := range p {
		if m.Feed(b) {
			return n + 1
		}
	}
	return -1
}
