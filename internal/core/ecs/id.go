package ecs

import "fmt"

// ID addresses entities and systems. The top bit is reserved: Null has it
// set and generated ids never do.
type ID uint64

const (
	Null ID = 0x8000000000000000
	Mask ID = 0x7FFFFFFFFFFFFFFF
)

func (id ID) Valid() bool { return id&^Mask == 0 }

func (id ID) String() string {
	if !id.Valid() {
		return "null"
	}
	return fmt.Sprintf("%016x", uint64(id))
}

// IDSource hands out candidate ids. Candidates may repeat; the engine
// detects collisions on registration and asks again.
type IDSource interface {
	Next() ID
}

const (
	mwcDefaultZ = 362436069
	mwcDefaultW = 521288629
	mwcSeededW  = 532388629
)

// IDGen is a multiply-with-carry generator. It is deterministic for a given
// seed and holds no shared state.
type IDGen struct {
	z, w uint32
}

func NewIDGen(seed uint32) *IDGen {
	g := &IDGen{}
	g.Seed(seed)
	return g
}

// Seed resets the generator. Seed 0 selects the default state, since a zero
// z word would never leave zero.
func (g *IDGen) Seed(seed uint32) {
	if seed == 0 {
		g.z, g.w = mwcDefaultZ, mwcDefaultW
		return
	}
	g.z, g.w = seed, mwcSeededW
}

func (g *IDGen) next32() uint32 {
	g.z = 36969*(g.z&65535) + (g.z >> 16)
	g.w = 18000*(g.w&65535) + (g.w >> 16)
	return (g.z << 16) + g.w
}

func (g *IDGen) Next() ID {
	hi := uint64(g.next32())
	lo := uint64(g.next32())
	return ID(hi<<32|lo) & Mask
}
