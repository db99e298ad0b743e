package lru

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// checkInvariants walks the recency list in both directions and verifies it
// matches the index one-to-one.
func checkInvariants[K comparable, V any](t *testing.T, c *Cache[K, V]) {
	t.Helper()
	require := require.New(t)

	require.LessOrEqual(c.Len(), c.Cap(), "size exceeds capacity")

	seen := make(map[K]bool, c.Len())
	prev := head
	for i := c.slots[head].next; i != tail; i = c.slots[i].next {
		require.NotEqual(head, i, "head anchor reachable as data")
		require.Equal(prev, c.slots[i].prev, "broken back link at slot %d", i)
		k := c.slots[i].key
		require.False(seen[k], "key %v linked twice", k)
		seen[k] = true

		idx, ok := c.index[k]
		require.True(ok, "linked key %v missing from index", k)
		require.Equal(i, idx, "index points at wrong slot for %v", k)
		prev = i
	}
	require.Equal(prev, c.slots[tail].prev, "tail anchor out of sync")
	require.Len(seen, len(c.index), "index and list disagree on size")
	require.Equal(len(c.slots), anchors+len(c.index)+len(c.free), "arena leaked slots")
}

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		c, err := New[int, int](n)
		require.ErrorIs(t, err, ErrInvalidCapacity, "capacity %d", n)
		require.Nil(t, c)
	}
}

func TestCapacityTwoScenario(t *testing.T) {
	require := require.New(t)
	c, err := New[int, int](2)
	require.NoError(err)

	c.Put(1, 1)
	c.Put(2, 2)

	v, ok := c.Get(1)
	require.True(ok)
	require.Equal(1, v)

	require.True(c.Put(3, 3), "put 3 should evict")

	_, ok = c.Get(2)
	require.False(ok, "2 was least recently used and should be gone")

	v, ok = c.Get(3)
	require.True(ok)
	require.Equal(3, v)

	c.Put(4, 4) // evicts 1
	_, ok = c.Get(1)
	require.False(ok)
	v, _ = c.Get(4)
	require.Equal(4, v)
	checkInvariants(t, c)
}

func TestCapacityOneScenario(t *testing.T) {
	require := require.New(t)
	c, err := New[int, int](1)
	require.NoError(err)

	c.Put(1, 1)
	c.Put(2, 2)

	_, ok := c.Get(1)
	require.False(ok)
	v, ok := c.Get(2)
	require.True(ok)
	require.Equal(2, v)
	require.Equal(1, c.Len())
	checkInvariants(t, c)
}

func TestOverflowEvictsFirstInserted(t *testing.T) {
	const capacity = 5
	c, err := New[int, string](capacity)
	require.NoError(t, err)

	for k := 1; k <= capacity+1; k++ {
		c.Put(k, "v")
	}
	_, ok := c.Get(1)
	require.False(t, ok)
	for k := 2; k <= capacity+1; k++ {
		require.True(t, c.Contains(k), "key %d", k)
	}
	require.Equal(t, []int{6, 5, 4, 3, 2}, c.Keys())
}

func TestPutExistingKeyUpdatesAndPromotes(t *testing.T) {
	require := require.New(t)
	c, _ := New[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	require.False(c.Put("a", 10))
	require.Equal(3, c.Len())
	require.Equal([]string{"a", "c", "b"}, c.Keys())

	c.Put("d", 4)
	require.False(c.Contains("b"))
	v, _ := c.Peek("a")
	require.Equal(10, v)
	checkInvariants(t, c)
}

func TestMissIsSideEffectFree(t *testing.T) {
	c, _ := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	before := c.Keys()

	for i := 0; i < 10; i++ {
		_, ok := c.Get("missing")
		require.False(t, ok)
	}
	require.Equal(t, before, c.Keys())
	require.Equal(t, 2, c.Len())
	require.Len(t, c.slots, anchors+2)
}

func TestPeekAndContainsDoNotPromote(t *testing.T) {
	c, _ := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	_, _ = c.Peek("a")
	require.True(t, c.Contains("a"))
	c.Put("c", 3)
	require.False(t, c.Contains("a"), "peek must not save a from eviction")
}

func TestOnEvictCallback(t *testing.T) {
	var evicted []string
	c, err := New(2, WithOnEvict(func(k string, _ int) {
		evicted = append(evicted, k)
	}))
	require.NoError(t, err)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Remove("b")
	c.Put("d", 4)
	c.Put("e", 5)

	require.Equal(t, []string{"a", "c"}, evicted)
}

func TestRemoveAndOldest(t *testing.T) {
	require := require.New(t)
	c, _ := New[string, int](3)

	_, _, ok := c.GetOldest()
	require.False(ok)
	_, _, ok = c.RemoveOldest()
	require.False(ok)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	k, v, ok := c.GetOldest()
	require.True(ok)
	require.Equal("a", k)
	require.Equal(1, v)

	k, _, ok = c.RemoveOldest()
	require.True(ok)
	require.Equal("a", k)

	require.True(c.Remove("c"))
	require.False(c.Remove("c"))
	require.Equal([]string{"b"}, c.Keys())
	checkInvariants(t, c)

	// freed slots are reused rather than growing the arena
	c.Put("x", 1)
	c.Put("y", 2)
	require.Len(c.slots, anchors+3)
	checkInvariants(t, c)
}

func TestResize(t *testing.T) {
	require := require.New(t)
	var evicted []int
	c, _ := New(4, WithOnEvict(func(k, _ int) { evicted = append(evicted, k) }))
	for k := 1; k <= 4; k++ {
		c.Put(k, k)
	}

	n, err := c.Resize(2)
	require.NoError(err)
	require.Equal(2, n)
	require.Equal([]int{1, 2}, evicted)
	require.Equal(2, c.Cap())
	require.Equal([]int{4, 3}, c.Keys())

	_, err = c.Resize(0)
	require.ErrorIs(err, ErrInvalidCapacity)
	require.Equal(2, c.Cap())

	n, err = c.Resize(10)
	require.NoError(err)
	require.Zero(n)
	checkInvariants(t, c)
}

func TestPruneAndPurge(t *testing.T) {
	require := require.New(t)
	c, _ := New[int, int](10)
	for k := 0; k < 10; k++ {
		c.Put(k, k)
	}

	removed := c.Prune(func(_ int, v int) bool { return v%2 == 0 })
	require.Equal(5, removed)
	require.Equal([]int{9, 7, 5, 3, 1}, c.Keys())
	checkInvariants(t, c)

	c.Purge()
	require.Zero(c.Len())
	require.Empty(c.Keys())
	checkInvariants(t, c)

	c.Put(1, 1)
	v, ok := c.Get(1)
	require.True(ok)
	require.Equal(1, v)
}

// TestRandomOpsMatchModel drives the cache with a random op sequence and
// compares it to a slice-based reference model after every step.
func TestRandomOpsMatchModel(t *testing.T) {
	const capacity = 8
	rng := rand.New(rand.NewSource(1))

	c, err := New[int, int](capacity)
	require.NoError(t, err)

	type kv struct{ k, v int }
	var model []kv // MRU first

	find := func(k int) int {
		return slices.IndexFunc(model, func(e kv) bool { return e.k == k })
	}

	for step := 0; step < 5000; step++ {
		k := rng.Intn(20)
		switch rng.Intn(3) {
		case 0:
			got, ok := c.Get(k)
			if j := find(k); j >= 0 {
				e := model[j]
				require.True(t, ok, "step %d get %d", step, k)
				require.Equal(t, e.v, got)
				model = append([]kv{e}, slices.Delete(model, j, j+1)...)
			} else {
				require.False(t, ok, "step %d get %d", step, k)
			}
		default:
			v := rng.Int()
			c.Put(k, v)
			if j := find(k); j >= 0 {
				model = slices.Delete(model, j, j+1)
			} else if len(model) == capacity {
				model = model[:len(model)-1]
			}
			model = append([]kv{{k, v}}, model...)
		}

		want := make([]int, len(model))
		for i, e := range model {
			want[i] = e.k
		}
		require.Equal(t, want, c.Keys(), "step %d", step)
	}
	checkInvariants(t, c)
}

func BenchmarkPut(b *testing.B) {
	c, _ := New[int, int](1024)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(i, i)
	}
}

func BenchmarkGetHit(b *testing.B) {
	c, _ := New[int, int](1024)
	for i := 0; i < 1024; i++ {
		c.Put(i, i)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(i & 1023)
	}
}

func TestResizeCompactsArena(t *testing.T) {
	require := require.New(t)
	c, _ := New[int, int](8)
	for k := 1; k <= 8; k++ {
		c.Put(k, k*10)
	}
	c.Get(3)

	n, err := c.Resize(2)
	require.NoError(err)
	require.Equal(6, n)
	require.Len(c.slots, anchors+2)
	require.Empty(c.free)
	require.Equal([]int{3, 8}, c.Keys())
	checkInvariants(t, c)

	v, ok := c.Get(8)
	require.True(ok)
	require.Equal(80, v)
	c.Put(9, 90)
	require.Equal([]int{9, 8}, c.Keys())
	checkInvariants(t, c)
}
