package status

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricMapCachesPointer(t *testing.T) {
	reg := NewRegistry()
	a := reg.Ints.Get("bolt.active")
	b := reg.Ints.Get("bolt.active")
	assert.Same(t, a, b)
	assert.True(t, reg.Ints.Has("bolt.active"))
	assert.Equal(t, 1, reg.TotalCount())
}

func TestMetricMapConcurrentGet(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Ints.Get("scheduler.owner_ops").Add(1)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 16, reg.Ints.Get("scheduler.owner_ops").Load())
}

func TestAtomicFloatAdd(t *testing.T) {
	var f AtomicFloat
	f.Set(1.5)
	assert.InDelta(t, 2.0, f.Add(0.5), 1e-12)
	assert.InDelta(t, 2.0, f.Get(), 1e-12)
}

func TestSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Ints.Get("lights.active").Store(3)
	reg.Floats.Get("bolt.max_life").Set(1.25)
	reg.Bools.Get("scheduler.terminating").Store(true)

	snap := reg.Snapshot()
	assert.Equal(t, map[string]float64{
		"lights.active":         3,
		"bolt.max_life":         1.25,
		"scheduler.terminating": 1,
	}, snap)
}

func TestMetricName(t *testing.T) {
	assert.Equal(t, "boltfx_scheduler_owner_ops", MetricName("boltfx", "scheduler.owner_ops"))
	assert.Equal(t, "pool_batch_size", MetricName("", "pool.batch-size"))
}

func TestCollectorExportsGauges(t *testing.T) {
	reg := NewRegistry()
	reg.Ints.Get("lights.active").Store(7)
	reg.Bools.Get("scheduler.running").Store(true)

	preg := prometheus.NewRegistry()
	require.NoError(t, preg.Register(NewCollector(reg, "boltfx")))

	families, err := preg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 2)

	got := make(map[string]float64)
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1)
		got[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"boltfx_lights_active":     7,
		"boltfx_scheduler_running": 1,
	}, got)
}

func TestAtomicFloatStoreMax(t *testing.T) {
	var f AtomicFloat
	f.StoreMax(3)
	f.StoreMax(1)
	assert.InDelta(t, 3.0, f.Get(), 1e-12)
	f.StoreMax(4.5)
	assert.InDelta(t, 4.5, f.Get(), 1e-12)
}

func TestMetricMapRangeOrderAndPrefix(t *testing.T) {
	reg := NewRegistry()
	for _, k := range []string{"pool.light.idle", "bolt.active", "pool.batch.idle", "poolside", "pool.batch.created"} {
		reg.Ints.Get(k)
	}

	var all []string
	reg.Ints.Range(func(key string, _ *atomic.Int64) { all = append(all, key) })
	assert.Equal(t, []string{"bolt.active", "pool.batch.created", "pool.batch.idle", "pool.light.idle", "poolside"}, all)

	var pools []string
	reg.Ints.RangePrefix("pool.", func(key string, _ *atomic.Int64) { pools = append(pools, key) })
	assert.Equal(t, []string{"pool.batch.created", "pool.batch.idle", "pool.light.idle"}, pools)

	reg.Ints.RangePrefix("lights.", func(string, *atomic.Int64) { t.Error("visited a missing subsystem") })
	assert.Equal(t, 5, reg.Ints.Count())
}
