package crypt

// Shuffle seed constants; a wrapping product of the password bytes seeds the
// generator whose outputs are folded back against the password.
const (
	shuffleSeedMul = 20543
	shuffleSeedAdd = 81647
)

// ShuffleSeed derives the run-wide shuffle seed from the password alone, so
// compression and decompression reproduce the same permutations without
// coordinating.
func ShuffleSeed(pass []byte) uint64 {
	prod := uint64(1)
	for _, c := range pass {
		prod *= uint64(c)
	}
	g := NewLCG(shuffleSeedMul*prod + shuffleSeedAdd)
	var seed uint64
	for _, c := range pass {
		seed += uint64(c) * g.Next()
	}
	return seed
}

// Shuffle permutes data in place with a Fisher–Yates walk driven by a fresh
// generator seeded from seed. Chunk payloads are shuffled independently.
func Shuffle(data []byte, seed uint64) {
	g := NewLCG(seed)
	for i := len(data) - 1; i > 0; i-- {
		j := int(g.Next() % uint64(i+1))
		data[i], data[j] = data[j], data[i]
	}
}

// Unshuffle inverts Shuffle by replaying the swap sequence backwards.
func Unshuffle(data []byte, seed uint64) {
	n := len(data)
	if n < 2 {
		return
	}
	g := NewLCG(seed)
	swaps := make([]int, 0, n-1)
	for i := n - 1; i > 0; i-- {
		swaps = append(swaps, int(g.Next()%uint64(i+1)))
	}
	for k := len(swaps) - 1; k >= 0; k-- {
		i := n - 1 - k
		j := swaps[k]
		data[i], data[j] = data[j], data[i]
	}
}
