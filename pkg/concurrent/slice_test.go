package concurrent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlice_AppendThenAll(t *testing.T) {
	s := NewSlice[int]()

	s.Append(1)
	s.Append(2)
	s.Append(3)

	assert.Equal(t, []int{1, 2, 3}, s.All())
}

func TestSlice_Set(t *testing.T) {
	s := NewSlice[int]()
	s.Append(1)
	s.Append(2)

	ok := s.Set(0, 10)
	assert.True(t, ok)
	assert.Equal(t, []int{10, 2}, s.All())

	ok = s.Set(-1, 100)
	assert.False(t, ok)

	ok = s.Set(5, 100)
	assert.False(t, ok)
}

func TestSlice_AllReturnsACopy(t *testing.T) {
	s := NewSlice[int]()
	s.Append(1)
	s.Append(2)

	all := s.All()
	all[0] = 100

	assert.Equal(t, []int{1, 2}, s.All())
}

func TestSlice_ConcurrentSetByIndex(t *testing.T) {
	s := NewSlice[int]()
	for range 100 {
		s.Append(0)
	}

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Set(n, n*10)
		}(i)
	}
	wg.Wait()

	all := s.All()
	require.Len(t, all, 100)
	for i, v := range all {
		assert.Equal(t, i*10, v)
	}
}
