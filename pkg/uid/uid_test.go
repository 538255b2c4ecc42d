package uid_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul-17/dispatcher/pkg/uid"
)

func TestNextIsUnique(t *testing.T) {
	t.Parallel()

	gen := uid.NewGenerator()

	const goroutines = 8
	const perGoroutine = 500

	var mu sync.Mutex
	seen := make(map[string]struct{}, goroutines*perGoroutine)
	var wg sync.WaitGroup

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]string, 0, perGoroutine)
			for range perGoroutine {
				ids = append(ids, gen.Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestNextSharesPrefixWithinGenerator(t *testing.T) {
	t.Parallel()

	gen := uid.NewGenerator()
	first := gen.Next()
	second := gen.Next()

	prefix := first[:strings.LastIndex(first, "-")]
	assert.True(t, strings.HasPrefix(second, prefix))
	assert.NotEqual(t, first, second)
}

func TestGeneratorsDoNotCollide(t *testing.T) {
	t.Parallel()

	a := uid.NewGenerator()
	b := uid.NewGenerator()

	require.NotEqual(t, a.Next(), b.Next())
}
