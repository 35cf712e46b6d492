package spawn

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/regionspawn/internal/catalog"
	"github.com/udisondev/regionspawn/internal/config"
	"github.com/udisondev/regionspawn/internal/model"
	"github.com/udisondev/regionspawn/internal/testutil"
	"github.com/udisondev/regionspawn/internal/world"
)

type countingRecorder struct {
	spawned atomic.Int32
	failed  atomic.Int32
	pruned  atomic.Int32
}

func (r *countingRecorder) Spawned(string)         { r.spawned.Add(1) }
func (r *countingRecorder) SlotFailed(string)      { r.failed.Add(1) }
func (r *countingRecorder) Pruned(_ string, n int) { r.pruned.Add(int32(n)) }

type fixture struct {
	srv      *world.Server
	catalog  *catalog.Memory
	tracker  *Tracker
	settings *config.Settings
	recorder *countingRecorder
	sched    *Scheduler
}

func testSpawnConfig() config.SpawnConfig {
	cfg := config.DefaultSpawnConfig()
	cfg.InitialDelay = 0
	cfg.SpawnPause = 0
	return cfg
}

func newFixture(t *testing.T, cfg config.SpawnConfig, params model.RegionParams) *fixture {
	t.Helper()

	srv := testutil.FlatWorld(t, "overworld", 32)
	cat := catalog.NewMemory()
	cat.UpsertTemplate(testutil.Template("zombie"))
	cat.UpsertRegion(model.NewRegion(params))

	scfg := config.DefaultSpawner()
	scfg.SettingsFile = ""
	settings := config.NewSettings(scfg)

	f := &fixture{
		srv:      srv,
		catalog:  cat,
		tracker:  NewTracker(),
		settings: settings,
		recorder: &countingRecorder{},
	}
	f.sched = NewScheduler(cat, f.tracker, srv, settings, cfg, WithRecorder(f.recorder))
	t.Cleanup(f.sched.Close)
	return f
}

func (f *fixture) observe(region string) {
	r, _ := f.catalog.Region(region)
	f.srv.AddObserver(r.Center())
}

func TestScheduler_FillsRegionInBatches(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "zombie")
	params.MaxPopulation = 5
	f := newFixture(t, testSpawnConfig(), params)
	f.observe("graveyard")
	ctx := context.Background()

	assert.Equal(t, 3, f.sched.RunCycle(ctx, "graveyard"))
	assert.Equal(t, 3, f.tracker.Count("graveyard"))

	assert.Equal(t, 2, f.sched.RunCycle(ctx, "graveyard"))
	assert.Equal(t, 5, f.tracker.Count("graveyard"))

	assert.Equal(t, 0, f.sched.RunCycle(ctx, "graveyard"))
	assert.Equal(t, 5, f.tracker.Count("graveyard"))
	assert.Equal(t, 5, f.srv.ActorCount())
	assert.Equal(t, int32(5), f.recorder.spawned.Load())
}

func TestScheduler_BatchNeverExceedsLimit(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "zombie")
	params.MaxPopulation = 50
	cfg := testSpawnConfig()
	cfg.MaxBatch = 4
	f := newFixture(t, cfg, params)
	f.observe("graveyard")

	for i := 1; i <= 5; i++ {
		assert.Equal(t, 4, f.sched.RunCycle(context.Background(), "graveyard"))
		assert.Equal(t, 4*i, f.tracker.Count("graveyard"))
	}
}

func TestScheduler_RefillsAfterDeath(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "zombie")
	params.MaxPopulation = 3
	f := newFixture(t, testSpawnConfig(), params)
	f.observe("graveyard")
	ctx := context.Background()

	require.Equal(t, 3, f.sched.RunCycle(ctx, "graveyard"))

	ids := f.tracker.ReleaseRegion("graveyard")
	for _, id := range ids {
		f.tracker.Register("graveyard", id)
	}
	f.srv.Kill(ids[0])
	f.srv.Remove(ids[1])

	assert.Equal(t, 2, f.sched.RunCycle(ctx, "graveyard"))
	assert.Equal(t, 3, f.tracker.Count("graveyard"))
	assert.Equal(t, int32(2), f.recorder.pruned.Load())
}

func TestScheduler_CycleAborts(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "zombie")
	ctx := context.Background()

	t.Run("no observer", func(t *testing.T) {
		f := newFixture(t, testSpawnConfig(), params)
		f.srv.AddObserver(model.NewPoint("overworld", 500, 61, 500))
		assert.Equal(t, 0, f.sched.RunCycle(ctx, "graveyard"))
	})

	t.Run("observer in other world", func(t *testing.T) {
		f := newFixture(t, testSpawnConfig(), params)
		testutil.AddFlatWorld(f.srv, "nether", 16)
		f.srv.AddObserver(model.NewPoint("nether", 5, 65, 5))
		assert.Equal(t, 0, f.sched.RunCycle(ctx, "graveyard"))
	})

	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, testSpawnConfig(), params)
		f.observe("graveyard")
		f.settings.SetEnabled(false)
		assert.Equal(t, 0, f.sched.RunCycle(ctx, "graveyard"))
	})

	t.Run("world missing", func(t *testing.T) {
		f := newFixture(t, testSpawnConfig(), params)
		f.observe("graveyard")
		f.srv.RemoveWorld("overworld")
		assert.Equal(t, 0, f.sched.RunCycle(ctx, "graveyard"))
	})

	t.Run("unknown region", func(t *testing.T) {
		f := newFixture(t, testSpawnConfig(), params)
		assert.Equal(t, 0, f.sched.RunCycle(ctx, "nowhere"))
	})
}

func TestScheduler_FailedPlacementSkipsSlot(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "zombie")
	f := newFixture(t, testSpawnConfig(), params)
	f.observe("graveyard")
	w, _ := f.srv.World("overworld")
	w.UnloadChunk(0, 0)

	assert.Equal(t, 0, f.sched.RunCycle(context.Background(), "graveyard"))
	assert.Equal(t, int32(3), f.recorder.failed.Load())
	assert.Equal(t, 0, f.tracker.Count("graveyard"))
}

func TestScheduler_LevelsStayInRange(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "skeleton")
	params.MinLevel = 1
	params.MaxLevel = 10
	params.MaxPopulation = 30
	f := newFixture(t, testSpawnConfig(), params)
	f.catalog.UpsertTemplate(model.NewActorTemplate(model.TemplateParams{ID: "skeleton", MinLevel: 3, MaxLevel: 5}))
	f.observe("graveyard")

	for range 10 {
		f.sched.RunCycle(context.Background(), "graveyard")
	}

	ids := f.tracker.ReleaseRegion("graveyard")
	require.Len(t, ids, 30)
	for _, id := range ids {
		st, ok := f.srv.ActorState(id)
		require.True(t, ok)
		assert.GreaterOrEqual(t, st.Level, 3)
		assert.LessOrEqual(t, st.Level, 5)
		assert.Equal(t, "skeleton", st.TemplateID)
	}
}

func TestScheduler_UnknownTemplateFailsSlots(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "ghost")
	f := newFixture(t, testSpawnConfig(), params)
	f.observe("graveyard")

	assert.Equal(t, 0, f.sched.RunCycle(context.Background(), "graveyard"))
	assert.Equal(t, 0, f.srv.ActorCount())
}

func TestScheduler_PauseHonorsCancellation(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "zombie")
	cfg := testSpawnConfig()
	cfg.SpawnPause = time.Hour
	f := newFixture(t, cfg, params)
	f.observe("graveyard")

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan int, 1)
	go func() { result <- f.sched.RunCycle(ctx, "graveyard") }()

	testutil.Eventually(t, time.Second, func() bool { return f.tracker.Count("graveyard") == 1 }, "first spawn")
	cancel()

	select {
	case n := <-result:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("cycle did not stop on cancel")
	}
}

type panickyHost struct {
	*world.Server
}

func (panickyHost) Spawn(context.Context, model.SpawnRequest) (model.ActorID, error) {
	panic("host exploded")
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	srv := testutil.FlatWorld(t, "overworld", 32)
	srv.AddObserver(model.NewPoint("overworld", 5, 61, 5))
	cat := catalog.NewMemory()
	cat.UpsertTemplate(testutil.Template("zombie"))
	cat.UpsertRegion(model.NewRegion(testutil.RegionParams("graveyard", "overworld", "zombie")))
	settings := config.NewSettings(config.Spawner{Enabled: true})

	sched := NewScheduler(cat, NewTracker(), panickyHost{srv}, settings, testSpawnConfig())

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, sched.RunCycle(context.Background(), "graveyard"))
	})
}

func TestScheduler_ActivateDeactivate(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "zombie")
	params.MaxPopulation = 3
	f := newFixture(t, testSpawnConfig(), params)
	f.observe("graveyard")

	assert.False(t, f.sched.Activate("nowhere"))
	require.True(t, f.sched.Activate("graveyard"))
	assert.False(t, f.sched.Activate("graveyard"), "already active")
	assert.True(t, f.sched.IsActive("graveyard"))
	assert.Equal(t, 1, f.sched.ActiveCount())

	testutil.Eventually(t, time.Second, func() bool { return f.tracker.Count("graveyard") == 3 }, "region filled")

	require.True(t, f.sched.Deactivate("graveyard"))
	assert.False(t, f.sched.Deactivate("graveyard"))
	assert.Equal(t, 0, f.tracker.Count("graveyard"))
	assert.Equal(t, 0, f.srv.ActorCount(), "released actors despawned")
	assert.Empty(t, f.sched.ActiveRegions())

	require.True(t, f.sched.Activate("graveyard"))
	testutil.Eventually(t, time.Second, func() bool { return f.tracker.Count("graveyard") == 3 }, "region refilled")
}

func TestScheduler_DeactivateKeepsActorsWhenConfigured(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "zombie")
	params.MaxPopulation = 3
	cfg := testSpawnConfig()
	cfg.DespawnOnDeactivate = false
	f := newFixture(t, cfg, params)
	f.observe("graveyard")

	require.Equal(t, 3, f.sched.RunCycle(context.Background(), "graveyard"))
	require.True(t, f.sched.Activate("graveyard"))
	require.True(t, f.sched.Deactivate("graveyard"))

	assert.Equal(t, 0, f.tracker.Count("graveyard"))
	assert.Equal(t, 3, f.srv.ActorCount())
}

func TestScheduler_ActivateAllDeactivateAll(t *testing.T) {
	f := newFixture(t, testSpawnConfig(), testutil.RegionParams("graveyard", "overworld", "zombie"))
	f.catalog.UpsertRegion(model.NewRegion(testutil.RegionParams("swamp", "overworld", "zombie")))

	assert.Equal(t, 2, f.sched.ActivateAll())
	assert.Equal(t, 0, f.sched.ActivateAll())
	assert.Equal(t, []string{"graveyard", "swamp"}, f.sched.ActiveRegions())

	assert.Equal(t, 2, f.sched.DeactivateAll())
	assert.Equal(t, 0, f.sched.ActiveCount())
}

func TestScheduler_ReactivateAfter(t *testing.T) {
	f := newFixture(t, testSpawnConfig(), testutil.RegionParams("graveyard", "overworld", "zombie"))

	f.sched.ReactivateAfter("graveyard", 10*time.Millisecond)
	assert.Equal(t, 1, f.sched.PendingReactivations())
	testutil.Eventually(t, time.Second, func() bool { return f.sched.IsActive("graveyard") }, "reactivated")
	assert.Equal(t, 0, f.sched.PendingReactivations())
}

func TestScheduler_ReactivationCancelled(t *testing.T) {
	f := newFixture(t, testSpawnConfig(), testutil.RegionParams("graveyard", "overworld", "zombie"))

	f.sched.ReactivateAfter("graveyard", 20*time.Millisecond)
	f.sched.DeactivateAll()
	assert.Equal(t, 0, f.sched.PendingReactivations())

	time.Sleep(60 * time.Millisecond)
	assert.False(t, f.sched.IsActive("graveyard"))
}

func TestScheduler_DeactivateWinsOverFiringReactivation(t *testing.T) {
	f := newFixture(t, testSpawnConfig(), testutil.RegionParams("graveyard", "overworld", "zombie"))
	names := make([]string, 0, 200)
	for i := range 200 {
		name := fmt.Sprintf("crypt-%d", i)
		f.catalog.UpsertRegion(model.NewRegion(testutil.RegionParams(name, "overworld", "zombie")))
		names = append(names, name)
	}

	for _, name := range names {
		f.sched.ReactivateAfter(name, 0)
		runtime.Gosched()
		f.sched.Deactivate(name)
	}

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, f.sched.ActiveCount(), "a reactivation outlived its Deactivate")
	assert.Zero(t, f.sched.PendingReactivations())
}

func TestScheduler_ClosedRefusesActivation(t *testing.T) {
	f := newFixture(t, testSpawnConfig(), testutil.RegionParams("graveyard", "overworld", "zombie"))
	require.True(t, f.sched.Activate("graveyard"))

	f.sched.Close()

	assert.False(t, f.sched.IsActive("graveyard"))
	assert.False(t, f.sched.Activate("graveyard"))
	f.sched.ReactivateAfter("graveyard", 0)
	assert.Equal(t, 0, f.sched.PendingReactivations())
}

func TestScheduler_IntervalIncludesOffset(t *testing.T) {
	params := testutil.RegionParams("graveyard", "overworld", "zombie")
	params.SpawnInterval = 10 * time.Second
	f := newFixture(t, testSpawnConfig(), params)

	assert.Equal(t, 10*time.Second, f.sched.interval("graveyard"))
	f.settings.IncreaseSpawnInterval(time.Second)
	f.settings.IncreaseSpawnInterval(time.Second)
	assert.Equal(t, 12*time.Second, f.sched.interval("graveyard"))
	assert.Equal(t, model.DefaultRegionSpawnInterval+2*time.Second, f.sched.interval("nowhere"))
}
