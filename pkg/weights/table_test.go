// pkg/weights/table_test.go
package weights

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSmall(t *testing.T) {
	// window 4, base 3: weight(v) = v * 27
	tab := Build(3, 4)
	require.Equal(t, uint64(0), tab.At(0).Uint64())
	require.Equal(t, uint64(27), tab.At(1).Uint64())
	require.Equal(t, uint64(97*27), tab.At('a').Uint64())
	require.Equal(t, uint64(255*27), tab.At(255).Uint64())
	require.Equal(t, uint64(3), tab.Base())
	require.Equal(t, 4, tab.Window())
}

func TestBuildWindowOne(t *testing.T) {
	tab := Build(3, 1)
	for v := 0; v < 256; v++ {
		require.Equal(t, uint64(v), tab.At(byte(v)).Uint64())
	}
}

func TestBuildDefaultConfigIsExact(t *testing.T) {
	tab := Build(3, 40)
	pow := new(big.Int).Exp(big.NewInt(3), big.NewInt(39), nil)
	for _, v := range []int64{1, 2, 128, 255} {
		want := new(big.Int).Mul(pow, big.NewInt(v))
		require.Equal(t, want.String(), tab.At(byte(v)).String())
	}
}

func TestBuildRejectsEmptyWindow(t *testing.T) {
	require.Panics(t, func() { Build(3, 0) })
}

func TestCacheSharesTables(t *testing.T) {
	var c Cache
	a := c.Get(3, 40)
	b := c.Get(3, 40)
	require.Same(t, a, b)
	require.NotSame(t, a, c.Get(5, 40))
	require.NotSame(t, a, c.Get(3, 41))
	require.Equal(t, 3, c.Len())
}

func TestCacheConcurrentFirstUse(t *testing.T) {
	var c Cache
	const n = 32
	got := make([]*Table, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			got[i] = c.Get(7, 64)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, got[0], got[i])
	}
	require.Equal(t, 1, c.Len())
	require.Equal(t, Build(7, 64).At(200).String(), got[0].At(200).String())
}
