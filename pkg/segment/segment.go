package segment

import "fmt"

// Error is a segment package error.
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrDigitOutOfRange is returned when a value outside 0-9 is encoded.
const ErrDigitOutOfRange = Error("digit out of range")

// Segment identifies one LED of a 7-segment digit.
type Segment uint8

const (
	A Segment = iota
	B
	C
	D
	E
	F
	G
	DP

	// NumSegments counts the segments including the decimal point.
	NumSegments = 8
)

// Glyph is a canonical segment mask: bit n lights Segment n (gfedcba, DP=bit7).
type Glyph uint8

// Has reports whether the glyph lights segment s.
func (g Glyph) Has(s Segment) bool {
	return g&(1<<s) != 0
}

// WithDP returns the glyph with the decimal point lit.
func (g Glyph) WithDP() Glyph {
	return g | 1<<DP
}

var glyphs = [10]Glyph{
	0x3F, // 0: a b c d e f
	0x06, // 1: b c
	0x5B, // 2: a b d e g
	0x4F, // 3: a b c d g
	0x66, // 4: b c f g
	0x6D, // 5: a c d f g
	0x7D, // 6: a c d e f g
	0x07, // 7: a b c
	0x7F, // 8: all
	0x6F, // 9: a b c d f g
}

// Encode returns the glyph for decimal digit d.
func Encode(d uint8) (Glyph, error) {
	if d > 9 {
		return 0, fmt.Errorf("%w: %d", ErrDigitOutOfRange, d)
	}
	return glyphs[d], nil
}

// Pattern is the byte driven onto the physical segment bus.
type Pattern uint8

// Layout maps each canonical Segment to a bit on the segment bus.
type Layout [NumSegments]uint8

// DefaultLayout is the board wiring: DP on bit 0, then C D E B A F G on bits 1-7.
var DefaultLayout = Layout{
	A:  5,
	B:  4,
	C:  1,
	D:  2,
	E:  3,
	F:  6,
	G:  7,
	DP: 0,
}

// Validate checks that every bus bit is used exactly once.
func (l Layout) Validate() error {
	var seen uint16
	for s, bit := range l {
		if bit >= NumSegments {
			return fmt.Errorf("segment %d mapped to bus bit %d", s, bit)
		}
		if seen&(1<<bit) != 0 {
			return fmt.Errorf("bus bit %d mapped twice", bit)
		}
		seen |= 1 << bit
	}
	return nil
}

// Pattern converts a glyph to the bus byte for this wiring.
func (l Layout) Pattern(g Glyph) Pattern {
	var p Pattern
	for s := A; s < NumSegments; s++ {
		if g.Has(s) {
			p |= 1 << l[s]
		}
	}
	return p
}

// Bit returns the single bus bit that drives segment s.
func (l Layout) Bit(s Segment) Pattern {
	return 1 << l[s]
}

// Decode returns the digit shown by g, ignoring the decimal point.
func Decode(g Glyph) (uint8, bool) {
	g &^= 1 << DP
	for d, want := range glyphs {
		if g == want {
			return uint8(d), true
		}
	}
	return 0, false
}

// Glyph converts a bus byte back to canonical segments for this wiring.
func (l Layout) Glyph(p Pattern) Glyph {
	var g Glyph
	for s := A; s < NumSegments; s++ {
		if p&(1<<l[s]) != 0 {
			g |= 1 << s
		}
	}
	return g
}
