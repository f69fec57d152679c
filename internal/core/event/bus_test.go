package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ping struct{ n int }

type pong struct{ s string }

func TestBusDeliversNextFrame(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(p ping) { got = append(got, p.n) })

	Emit(b, ping{1})
	Emit(b, ping{2})
	Emit(b, pong{"nobody listens"})
	assert.Equal(t, 2, b.Pending())

	b.DispatchAll()
	assert.Empty(t, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got)

	// delivered events are not replayed
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 0, b.Pending())
}

func TestBusEmitDuringDispatch(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(p ping) {
		got = append(got, p.n)
		if p.n < 3 {
			Emit(b, ping{p.n + 1})
		}
	})
	Emit(b, ping{1})
	for i := 0; i < 4; i++ {
		b.SwapBuffers()
		b.DispatchAll()
	}
	assert.Equal(t, []int{1, 2, 3}, got)
}
