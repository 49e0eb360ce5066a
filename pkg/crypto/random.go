package crypto

import (
	"crypto/rand"
	"encoding/binary"
)

// Source draws uniform floats from the operating system CSPRNG. It satisfies
// the game package's random source and is safe for concurrent use.
type Source struct{}

// Float64 returns a value in [0, 1) built from 53 random bits.
func (Source) Float64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read never fails on supported platforms.
		panic("crypto: read random bytes: " + err.Error())
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}
