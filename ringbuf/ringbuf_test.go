package ringbuf_test

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"pipelined.dev/basicdsp/ringbuf"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBuffer(t *testing.T) {
	b := ringbuf.New(3)
	assert.Equal(t, 4, b.Cap())
	assert.Equal(t, 0, b.Len())

	for i := 0; i < 4; i++ {
		assert.True(t, b.Write(ringbuf.Pair{S1: float32(i), S2: float32(-i)}))
	}
	assert.False(t, b.Write(ringbuf.Pair{S1: 100}))
	assert.Equal(t, 4, b.Len())

	dst := make([]ringbuf.Pair, 3)
	assert.Equal(t, 3, b.Read(dst))
	assert.Equal(t, []ringbuf.Pair{{0, 0}, {1, -1}, {2, -2}}, dst)
	assert.Equal(t, 1, b.Len())

	// wraps around
	assert.True(t, b.Write(ringbuf.Pair{S1: 4, S2: -4}))
	assert.Equal(t, 2, b.Read(dst))
	assert.Equal(t, []ringbuf.Pair{{3, -3}, {4, -4}}, dst[:2])
	assert.Equal(t, 0, b.Read(dst))

	b.Write(ringbuf.Pair{})
	b.Discard()
	assert.Equal(t, 0, b.Len())
}

func TestBufferConcurrent(t *testing.T) {
	const total = 20000
	b := ringbuf.New(64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if !b.Write(ringbuf.Pair{S1: float32(i), S2: float32(i)}) {
				runtime.Gosched()
				continue
			}
			i++
		}
	}()

	dst := make([]ringbuf.Pair, 16)
	next, misordered := 0, 0
	for next < total {
		n := b.Read(dst)
		if n == 0 {
			runtime.Gosched()
			continue
		}
		for _, p := range dst[:n] {
			if p.S1 != float32(next) {
				misordered++
			}
			next++
		}
	}
	wg.Wait()
	assert.Equal(t, total, next)
	assert.Zero(t, misordered)
}
