package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/kaelthys/atreia/internal/config"
	"github.com/kaelthys/atreia/internal/detect"
	"github.com/kaelthys/atreia/internal/input"
)

type fakeSource struct {
	snap detect.Snapshot
	err  error
}

func (f *fakeSource) Detect() (detect.Snapshot, error) {
	return f.snap, f.err
}

type fakeDispatcher struct {
	mu          sync.Mutex
	calls       [][]input.Action
	attempts    int
	failWith    error
	cancelAfter int
	cancel      context.CancelFunc
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, actions ...input.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.cancelAfter > 0 && f.attempts >= f.cancelAfter {
		f.cancel()
	}
	if f.failWith != nil {
		return f.failWith
	}
	f.calls = append(f.calls, actions)
	return nil
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) bool {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err() == nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func driverProfile(t *testing.T) *config.HunterCfg {
	t.Helper()

	cfg := &config.HunterCfg{
		CharacterName:   "Tester",
		GameWindowTitle: "AION",
		Skills: map[string]float64{
			"1": 10,
			"2": 12,
		},
		Combos: []config.ComboSet{
			{
				Name:        "Rotation",
				Skills:      []config.Keybind{config.MustKeybind("1"), config.MustKeybind("2")},
				CooldownSec: 60,
				Enabled:     true,
			},
		},
	}
	cfg.Attack.GlobalCooldownSec = 1.5
	cfg.Attack.Weights = config.AttackWeights{Standard: 1}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test profile should be valid: %v", err)
	}

	// Collapse every stealth delay so ticks are driven purely by the fakes.
	cfg.Stealth.StartupDelayMinSec, cfg.Stealth.StartupDelayMaxSec = 0, 0
	cfg.Stealth.WarmupExtraMinSec, cfg.Stealth.WarmupExtraMaxSec = 0, 0
	cfg.Stealth.ActionDelayMinSec, cfg.Stealth.ActionDelayMaxSec = 0, 0
	cfg.Stealth.IdleDurationMinSec, cfg.Stealth.IdleDurationMaxSec = 0, 0

	return cfg
}

func targetSnapshot() detect.Snapshot {
	return detect.Snapshot{
		WindowW: 800,
		WindowH: 600,
		Detections: []detect.Detection{
			{Class: detect.MobNear, Box: detect.Box{X: 390, Y: 290, W: 30, H: 40}, Confidence: 0.9},
			{Class: detect.MobCombatHealth, Box: detect.Box{X: 300, Y: 20, W: 120, H: 14}, Confidence: 0.8},
		},
	}
}

func newTestDriver(t *testing.T, cfg *config.HunterCfg, dispatcher input.Dispatcher, source detect.Source, clock *fakeClock) *Driver {
	t.Helper()
	return NewDriver("tester", cfg, testLogger(), dispatcher, source,
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(clock.Now, clock.Sleep),
	)
}

func TestDriverStopsBeforeActing(t *testing.T) {
	cfg := driverProfile(t)
	clock := &fakeClock{now: time.Now()}
	dispatcher := &fakeDispatcher{}
	driver := newTestDriver(t, cfg, dispatcher, &fakeSource{snap: targetSnapshot()}, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := driver.Run(ctx); err != nil {
		t.Fatalf("stopped run should return nil, got %v", err)
	}
	if dispatcher.callCount() != 0 {
		t.Error("no action may be dispatched after the stop signal")
	}
}

func TestDriverWarmupProgression(t *testing.T) {
	cfg := driverProfile(t)
	cfg.Stealth.WarmupActions = 2

	clock := &fakeClock{now: time.Now()}
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := &fakeDispatcher{cancelAfter: 3, cancel: cancel}
	driver := newTestDriver(t, cfg, dispatcher, &fakeSource{snap: targetSnapshot()}, clock)

	if driver.Status().Phase != "idle" {
		t.Fatalf("driver should start idle, got %s", driver.Status().Phase)
	}

	if err := driver.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	st := driver.Status()
	if st.Phase != "steady" {
		t.Errorf("after %d actions the driver should be steady, got %s", st.Actions, st.Phase)
	}
	if st.Actions != 3 {
		t.Errorf("action count = %d, want 3", st.Actions)
	}
	if dispatcher.callCount() != 3 {
		t.Errorf("dispatch count = %d, want 3", dispatcher.callCount())
	}
}

func TestDispatchFailureSkipsCooldownCommit(t *testing.T) {
	cfg := driverProfile(t)
	cfg.Attack.Weights = config.AttackWeights{Combo: 1}
	cfg.Attack.RequireHealthBar = false
	cfg.Stealth.WarmupActions = 0

	clock := &fakeClock{now: time.Now()}
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := &fakeDispatcher{failWith: errors.New("window lost"), cancelAfter: 2, cancel: cancel}
	driver := newTestDriver(t, cfg, dispatcher, &fakeSource{snap: targetSnapshot()}, clock)

	if err := driver.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(driver.tracker.Snapshot()) != 0 {
		t.Error("failed dispatches must not consume cooldowns")
	}
	if driver.Status().Actions != 0 {
		t.Errorf("failed dispatches must not count as actions, got %d", driver.Status().Actions)
	}
}

func TestMaxHuntDurationStopsRun(t *testing.T) {
	cfg := driverProfile(t)
	cfg.MaxHuntDurationSec = 30

	clock := &fakeClock{now: time.Now()}
	dispatcher := &fakeDispatcher{}
	// No detections: every tick waits out the detection interval, advancing
	// the fake clock one second at a time.
	driver := newTestDriver(t, cfg, dispatcher, &fakeSource{snap: detect.Snapshot{WindowW: 800, WindowH: 600}}, clock)

	done := make(chan error, 1)
	go func() {
		done <- driver.Run(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop at the max hunt duration")
	}

	if dispatcher.callCount() != 0 {
		t.Errorf("no target was ever visible, but %d actions were dispatched", dispatcher.callCount())
	}
}

func TestIdleSimulationConsumesTickWithoutActing(t *testing.T) {
	cfg := driverProfile(t)
	cfg.Stealth.WarmupActions = 0
	cfg.Stealth.IdleCheckIntervalSec = 3
	cfg.Stealth.IdleProbability = 1
	cfg.Stealth.IdleDurationMinSec, cfg.Stealth.IdleDurationMaxSec = 2, 2
	cfg.Stealth.ActionDelayMinSec, cfg.Stealth.ActionDelayMaxSec = 4, 4

	clock := &fakeClock{now: time.Now()}
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := &fakeDispatcher{cancelAfter: 2, cancel: cancel}
	driver := newTestDriver(t, cfg, dispatcher, &fakeSource{snap: targetSnapshot()}, clock)

	if err := driver.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// With the idle probability forced to 1, the tick after the 4s action
	// delay crosses the 3s check interval and idles for the fixed 2s.
	idled := false
	clock.mu.Lock()
	for _, d := range clock.sleeps {
		if d == 2*time.Second {
			idled = true
			break
		}
	}
	clock.mu.Unlock()
	if !idled {
		t.Error("expected at least one idle pause between actions")
	}

	// Idle ticks dispatch nothing; only the real actions reached the window.
	if dispatcher.callCount() != 2 {
		t.Errorf("dispatch count = %d, want 2", dispatcher.callCount())
	}
}
