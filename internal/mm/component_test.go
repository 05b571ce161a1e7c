package mm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencomp-os/opencomp/internal/kernel"
)

func TestMemoryComponentInitLines(t *testing.T) {
	a := newTestAllocator(t, 64)
	var console bytes.Buffer

	c := Component(a, &console)
	require.Equal(t, "memory", c.Name)
	c.Init()

	assert.Contains(t, console.String(), "[memory] Physical memory manager initialized\n")
	assert.Contains(t, console.String(), "[memory] Managing 256 KB\n")
}

// pageConsumer is a component that allocates pages at init and releases one
// every hundredth tick, keeping its own count of held pages.
type pageConsumer struct {
	alloc *Allocator
	held  []Handle
	ticks int
}

func (p *pageConsumer) component() kernel.Component {
	return kernel.Component{
		Name: "consumer",
		Init: func() {
			for i := 0; i < 2; i++ {
				h, err := p.alloc.AllocPage()
				if err != nil {
					panic(err)
				}
				p.held = append(p.held, h)
			}
		},
		Tick: func() {
			p.ticks++
			if p.ticks%100 != 0 || len(p.held) == 0 {
				return
			}
			if err := p.alloc.FreePage(p.held[len(p.held)-1]); err != nil {
				panic(err)
			}
			p.held = p.held[:len(p.held)-1]
		},
	}
}

func TestConsumerComponentThroughScheduler(t *testing.T) {
	const pages = 64
	a := newTestAllocator(t, pages)
	var console bytes.Buffer

	consumer := &pageConsumer{alloc: a}
	sched := kernel.New(
		kernel.NewTable(Component(a, &console), consumer.component()),
		kernel.Config{Console: &console},
	)
	require.NoError(t, sched.Initialize())

	// Init claimed two pages.
	require.Len(t, consumer.held, 2)
	assert.Equal(t, uint64(pages-2), a.FreePages())
	assert.Equal(t, uint64(2), a.UsedPages())

	step := func(n int) {
		for i := 0; i < n; i++ {
			require.NoError(t, sched.Step())
		}
	}

	// The first release lands on pass 100, the second on pass 200.
	step(150)
	assert.Len(t, consumer.held, 1)
	assert.Equal(t, uint64(pages-1), a.FreePages())

	step(850)
	assert.Equal(t, uint64(1000), sched.Passes())
	assert.Empty(t, consumer.held)

	// Everything handed back; the counters agree with the component's own
	// bookkeeping at every point above.
	assert.Equal(t, uint64(pages), a.FreePages())
	assert.Equal(t, uint64(0), a.UsedPages())
	assert.Contains(t, console.String(), "Component: consumer - init\n")
}
