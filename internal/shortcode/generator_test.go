package shortcode

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_Shape(t *testing.T) {
	for _, length := range []int{0, 3, 4, 6, 10, 16, 40} {
		gen := NewRandomGenerator(length)
		want := min(max(length, MinLength), MaxLength)

		for i := 0; i < 500; i++ {
			code := gen.Generate()
			assert.Len(t, code, want)
			assert.True(t, Valid(code), code)
		}
	}
}

func TestRandomGenerator_ConcurrentUse(t *testing.T) {
	gen := NewRandomGenerator(DefaultLength)

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]int)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				code := gen.Generate()
				mu.Lock()
				seen[code]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// 62^6 candidates; 2000 draws should essentially never repeat.
	assert.Greater(t, len(seen), 1990)
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"abcd", true},
		{"Ab12Cd", true},
		{"abc", false},
		{"ab-cd", false},
		{"favicon.ico", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid(tt.code), tt.code)
	}
}

func TestIsReserved(t *testing.T) {
	assert.True(t, IsReserved("api"))
	assert.True(t, IsReserved("Health"))
	assert.True(t, IsReserved("favicon.ico"))
	assert.False(t, IsReserved("Ab12Cd"))
}
