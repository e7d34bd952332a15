package collection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncMapTakeOnce(t *testing.T) {
	m := NewSyncMap[int, string]()
	m.Put(1, "one")

	var taken int
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Take(1); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, taken)
	assert.Equal(t, 0, m.Len())

	_, ok := m.Get(1)
	assert.False(t, ok)
}
