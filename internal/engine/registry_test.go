package engine

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/j-emberton/HXforge/internal/hxerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	Resolver
	opens atomic.Int32
}

func (c *countingResolver) Open(fluid string) (io.ReadCloser, error) {
	c.opens.Add(1)
	return c.Resolver.Open(fluid)
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"water.txt":  {Data: []byte(waterTSV)},
		"glycol.txt": {Data: []byte("enthalpy\tdensity\n0\t1100\n100\t1050\n")},
		"notes.md":   {Data: []byte("ignored")},
	}
}

func TestTableStoreSharesTables(t *testing.T) {
	res := &countingResolver{Resolver: FSResolver{FS: testFS()}}
	store := NewTableStore(res, LoadOptions{})

	var wg sync.WaitGroup
	tables := make([]*Table, 16)
	for i := range tables {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tb, err := store.Get("water")
			assert.NoError(t, err)
			tables[i] = tb
		}()
	}
	wg.Wait()

	for _, tb := range tables {
		assert.Same(t, tables[0], tb)
	}
	assert.Equal(t, int32(1), res.opens.Load())
	assert.Equal(t, []string{"water"}, store.Loaded())
}

func TestTableStoreInvalidate(t *testing.T) {
	fsys := testFS()
	store := NewTableStore(FSResolver{FS: fsys}, LoadOptions{})

	before, err := store.Get("water")
	require.NoError(t, err)
	ev := NewTableEvaluator(before)

	fsys["water.txt"] = &fstest.MapFile{Data: []byte("enthalpy\tdensity\n100\t1\n200\t2\n")}
	store.Invalidate("water")

	after, err := store.Get("water")
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.NotEqual(t, before.Checksum(), after.Checksum())

	// evaluators built earlier keep the table they were given
	row, err := ev.SetEnthalpy(100)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, row.Values[0])
}

func TestTableStoreErrorsAreNotCached(t *testing.T) {
	var loads []string
	store := NewTableStore(FSResolver{FS: testFS()}, LoadOptions{})
	store.OnLoad = func(fluid string, _ *Table, err error) {
		loads = append(loads, fluid)
	}

	_, err := store.Get("r134a")
	require.ErrorIs(t, err, hxerr.ErrResourceNotFound)
	_, err = store.Get("r134a")
	require.ErrorIs(t, err, hxerr.ErrResourceNotFound)
	assert.Equal(t, []string{"r134a", "r134a"}, loads)
	assert.Empty(t, store.Loaded())
}

func TestTableStorePreloadAndFluids(t *testing.T) {
	store := NewTableStore(FSResolver{FS: testFS()}, LoadOptions{})

	fluids, err := store.Fluids()
	require.NoError(t, err)
	assert.Equal(t, []string{"glycol", "water"}, fluids)

	require.NoError(t, store.Preload("water", "glycol"))
	assert.Equal(t, []string{"glycol", "water"}, store.Loaded())

	err = store.Preload("water", "missing")
	assert.ErrorIs(t, err, hxerr.ErrResourceNotFound)
}

func TestResolverRejectsPaths(t *testing.T) {
	res := FSResolver{FS: testFS()}
	for _, id := range []string{"", "..", "../water", "a/b", `a\b`} {
		_, err := res.Open(id)
		assert.ErrorIs(t, err, hxerr.ErrResourceNotFound, "id=%q", id)
	}

	id, ok := FluidFromPath("/data/tables/water.txt", "")
	assert.True(t, ok)
	assert.Equal(t, "water", id)
	_, ok = FluidFromPath("/data/tables/water.txt.swp", "")
	assert.False(t, ok)
	assert.True(t, strings.HasSuffix(DefaultExt, "txt"))
}
