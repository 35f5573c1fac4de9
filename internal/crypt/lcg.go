// Package crypt holds the cipher boundary: the legacy password-derived
// AES-128-CBC key/IV construction, an opt-in PBKDF2 path, and the keyed
// Fisher–Yates payload shuffle. The legacy derivation is preserved verbatim
// for format compatibility; it is not a KDF and the trailing mod-255 biases
// every byte. Use the PBKDF2 path where both sides can agree on it.
package crypt

// LCG is the minstd_rand0 linear congruential generator
// (x' = 16807*x mod 2^31-1), used explicitly so derivations never depend on
// a host library's rand().
type LCG struct {
	state uint64
}

const (
	lcgMultiplier = 16807
	lcgModulus    = 2147483647 // 2^31 - 1
)

// NewLCG seeds a generator. Seeds congruent to 0 are mapped to 1, as
// minstd requires a nonzero state.
func NewLCG(seed uint64) *LCG {
	s := seed % lcgModulus
	if s == 0 {
		s = 1
	}
	return &LCG{state: s}
}

// Next advances the generator and returns the new state, in [1, 2^31-2].
func (g *LCG) Next() uint64 {
	g.state = g.state * lcgMultiplier % lcgModulus
	return g.state
}
