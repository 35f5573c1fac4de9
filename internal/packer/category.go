// Package packer implements the adaptive symbol packers: a fixed 3→1 codec
// for nucleotide bases and seven variable-ratio coders for header and
// quality-score streams, selected from the alphabet size discovered at
// runtime.
package packer

// Category identifies one pack/unpack family. Each category fixes the key
// length k (input symbols per packed unit) and the unit's output size so
// that all N^k keys have a distinct code within the output bytes.
type Category uint8

// Packer families by alphabet size N.
const (
	Cat1to1      Category = iota // N = 1
	Cat7to1                      // N = 2
	Cat5to1                      // N = 3
	Cat3to1                      // N in 4..6
	Cat2to1                      // N in 7..15
	Cat3to2                      // N in 16..39
	Cat3to2Large                 // N > 39, alphabet truncated to last 39 + extension symbol
)

// Alphabet-size boundaries between categories.
const (
	maxCat2 = 3  // 5→1 upper bound
	maxCat3 = 6  // 3→1 upper bound
	maxCat4 = 15 // 2→1 upper bound
	maxCat5 = 39 // 3→2 upper bound; larger alphabets are truncated to this
)

// Classify returns the packer family for an alphabet of n symbols.
func Classify(n int) Category {
	switch {
	case n > maxCat5:
		return Cat3to2Large
	case n > maxCat4:
		return Cat3to2
	case n > maxCat3:
		return Cat2to1
	case n > maxCat2:
		return Cat3to1
	case n == 3:
		return Cat5to1
	case n == 2:
		return Cat7to1
	default:
		return Cat1to1
	}
}

// KeyLen returns k, the number of input symbols per packed unit.
func (c Category) KeyLen() int {
	switch c {
	case Cat1to1:
		return 1
	case Cat7to1:
		return 7
	case Cat5to1:
		return 5
	case Cat3to1:
		return 3
	case Cat2to1:
		return 2
	default:
		return 3
	}
}

// CodeSize returns the number of output bytes per packed unit.
func (c Category) CodeSize() int {
	if c == Cat3to2 || c == Cat3to2Large {
		return 2
	}
	return 1
}

func (c Category) String() string {
	switch c {
	case Cat1to1:
		return "1to1"
	case Cat7to1:
		return "7to1"
	case Cat5to1:
		return "5to1"
	case Cat3to1:
		return "3to1"
	case Cat2to1:
		return "2to1"
	case Cat3to2:
		return "3to2"
	case Cat3to2Large:
		return "large-3to2"
	}
	return "unknown"
}
