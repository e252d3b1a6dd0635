package cache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/calvinalkan/dvd/internal/cache"
	"github.com/calvinalkan/dvd/internal/stats"
	statsprom "github.com/calvinalkan/dvd/internal/stats/prometheus"
	"github.com/calvinalkan/dvd/pkg/fs"
	"github.com/calvinalkan/dvd/pkg/lrulog"
)

func newStore(t *testing.T, opts cache.Options) (*cache.Store, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "dvd")

	return cache.New(fs.NewReal(), dir, opts), dir
}

func strs(records [][]byte) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, string(r))
	}

	return out
}

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}

		m := f.GetMetric()[0]

		switch {
		case m.GetCounter() != nil:
			return m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			return m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			return m.GetHistogram().GetSampleSum()
		}
	}

	t.Fatalf("metric %s not gathered", name)

	return 0
}

func Test_Store_Get_Returns_Distinct_Records_Most_Recent_First_When_Puts_Repeat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore(t, cache.Options{})

	for _, rec := range []string{"/a", "/b", "/a", "/c"} {
		require.NoError(t, store.Put(ctx, "dirs", []byte(rec)))
	}

	got, err := store.Get(ctx, "dirs", cache.GetOptions{Limit: lrulog.Unlimited})
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"/c", "/a", "/b"}, strs(got)); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	got, err = store.Get(ctx, "dirs", cache.GetOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"/c", "/a"}, strs(got))
}

func Test_Store_Keeps_Caches_Independent_When_Names_Differ(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore(t, cache.Options{})

	require.NoError(t, store.Put(ctx, "one", []byte("x")))
	require.NoError(t, store.Put(ctx, "two", []byte("y")))

	one, err := store.Get(ctx, "one", cache.GetOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, strs(one))

	two, err := store.Get(ctx, "two", cache.GetOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, strs(two))
}

func Test_Store_Get_Returns_Empty_When_Cache_Unknown(t *testing.T) {
	t.Parallel()

	store, dir := newStore(t, cache.Options{})

	got, err := store.Get(context.Background(), "never-used", cache.GetOptions{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, statErr := os.Stat(dir)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "Get created the data dir")
}

func Test_Store_Rejects_Invalid_Name_When_Any_Operation_Called(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore(t, cache.Options{})

	require.ErrorIs(t, store.Put(ctx, "../up", []byte("x")), cache.ErrInvalidName)

	_, err := store.Get(ctx, "a/b", cache.GetOptions{Limit: 1})
	require.ErrorIs(t, err, cache.ErrInvalidName)

	require.ErrorIs(t, store.Clear(ctx, ""), cache.ErrInvalidName)

	_, err = store.Verify(ctx, ".x")
	require.ErrorIs(t, err, cache.ErrInvalidName)
}

func Test_Store_Returns_Context_Error_When_Context_Canceled(t *testing.T) {
	t.Parallel()

	store, dir := newStore(t, cache.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Put(ctx, "dirs", []byte("x")), context.Canceled)

	_, err := store.Get(ctx, "dirs", cache.GetOptions{Limit: 1})
	require.ErrorIs(t, err, context.Canceled)

	require.ErrorIs(t, store.Clear(ctx, "dirs"), context.Canceled)

	_, statErr := os.Stat(dir)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "canceled Put touched the filesystem")
}

func Test_Store_Put_Returns_ErrTooLarge_When_Record_Exceeds_Limit(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	store, _ := newStore(t, cache.Options{Stats: statsprom.New(reg)})

	err := store.Put(context.Background(), "dirs", make([]byte, lrulog.MaxRecordLen+1))
	require.ErrorIs(t, err, lrulog.ErrTooLarge)

	assert.InDelta(t, 1.0, gatherValue(t, reg, stats.MetricPutErrors), 0)
}

func Test_Store_Get_Returns_Partial_Result_When_Log_Corrupt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	store, dir := newStore(t, cache.Options{Stats: statsprom.New(reg)})

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dirs.log"), []byte{0xff, 0x00}, 0o644))

	require.NoError(t, store.Put(ctx, "dirs", []byte("/ok")))

	got, err := store.Get(ctx, "dirs", cache.GetOptions{Limit: 10})
	require.ErrorIs(t, err, lrulog.ErrCorrupt)
	assert.Equal(t, []string{"/ok"}, strs(got))

	assert.InDelta(t, 1.0, gatherValue(t, reg, stats.MetricCorruptLogs), 0)
	assert.InDelta(t, 1.0, gatherValue(t, reg, stats.MetricRecordsReturned), 0)

	_, err = store.Verify(ctx, "dirs")
	require.ErrorIs(t, err, lrulog.ErrCorrupt)

	require.NoError(t, store.Clear(ctx, "dirs"))

	res, err := store.Verify(ctx, "dirs")
	require.NoError(t, err)
	assert.Equal(t, lrulog.VerifyResult{}, res)
}

func Test_Store_Get_Applies_Keep_When_Filter_Given(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore(t, cache.Options{})

	for _, rec := range []string{"keep-1", "drop", "keep-2"} {
		require.NoError(t, store.Put(ctx, "dirs", []byte(rec)))
	}

	got, err := store.Get(ctx, "dirs", cache.GetOptions{
		Limit: lrulog.Unlimited,
		Keep:  func(r []byte) bool { return string(r) != "drop" },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep-2", "keep-1"}, strs(got))
}

func Test_Store_Put_Times_Out_When_Another_Writer_Holds_Lock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	store, _ := newStore(t, cache.Options{LockTimeout: 10 * time.Millisecond, Stats: statsprom.New(reg)})

	path, err := store.Resolver().Resolve("dirs")
	require.NoError(t, err)

	held, err := fs.NewLocker(fs.NewReal()).TryLock(path + ".lock")
	require.NoError(t, err)

	defer held.Close()

	err = store.Put(ctx, "dirs", []byte("/x"))
	require.ErrorIs(t, err, fs.ErrWouldBlock)
	assert.InDelta(t, 1.0, gatherValue(t, reg, stats.MetricLockTimeouts), 0)
}

func Test_Store_Put_Ignores_Held_Lock_When_Locking_Disabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newStore(t, cache.Options{NoLock: true})

	path, err := store.Resolver().Resolve("dirs")
	require.NoError(t, err)

	held, err := fs.NewLocker(fs.NewReal()).TryLock(path + ".lock")
	require.NoError(t, err)

	defer held.Close()

	require.NoError(t, store.Put(ctx, "dirs", []byte("/x")))
}

func Test_Store_Caches_Lists_Logs_Sorted_By_Name(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, dir := newStore(t, cache.Options{})

	caches, err := store.Caches()
	require.NoError(t, err)
	assert.Empty(t, caches)

	require.NoError(t, store.Put(ctx, "a.b", []byte("12345")))
	require.NoError(t, store.Put(ctx, "a", []byte("1")))
	require.NoError(t, store.Put(ctx, "a-b", []byte("12")))

	// Noise that is not a cache.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.log"), 0o755))

	caches, err = store.Caches()
	require.NoError(t, err)

	want := []cache.Info{
		{Name: "a", Path: filepath.Join(dir, "a.log"), Size: 3},
		{Name: "a-b", Path: filepath.Join(dir, "a-b.log"), Size: 4},
		{Name: "a.b", Path: filepath.Join(dir, "a.b.log"), Size: 7},
	}

	if diff := cmp.Diff(want, caches); diff != "" {
		t.Fatalf("caches mismatch (-want +got):\n%s", diff)
	}
}

func Test_Store_Logs_Operations_At_Debug_When_Logger_Given(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	store, _ := newStore(t, cache.Options{Logger: zap.New(core)})

	require.NoError(t, store.Put(ctx, "dirs", []byte("/x")))

	_, err := store.Get(ctx, "dirs", cache.GetOptions{Limit: 1})
	require.NoError(t, err)

	puts := logs.FilterMessage("put").All()
	require.Len(t, puts, 1)
	assert.Equal(t, "dirs", puts[0].ContextMap()["cache"])
	assert.Equal(t, int64(2), puts[0].ContextMap()["bytes"])

	gets := logs.FilterMessage("get").All()
	require.Len(t, gets, 1)
	assert.Equal(t, int64(1), gets[0].ContextMap()["records"])
}
