package deck

import (
	"encoding/binary"
	"io"
	"math"
)

// Shuffle returns a Fisher-Yates permutation of d driven by the blake2xb
// XOF keyed with seed. Equal seeds and equal input order give the same
// output on every peer. An empty seed is a programming error.
func Shuffle(d Deck, seed Seed) Deck {
	if seed == "" {
		panic("deck: shuffle without a seed")
	}
	out := append(Deck(nil), d...)
	stream := suite.XOF([]byte(seed))
	for i := len(out) - 1; i > 0; i-- {
		j := uniform(stream, uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// uniform draws an integer in [0, n) without modulo bias.
func uniform(r io.Reader, n uint64) int {
	limit := math.MaxUint64 - math.MaxUint64%n
	buf := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			panic(err)
		}
		v := binary.BigEndian.Uint64(buf)
		if v < limit {
			return int(v % n)
		}
	}
}
