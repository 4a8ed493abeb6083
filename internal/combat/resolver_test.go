package combat

import (
	"math/rand"
	"testing"
	"time"

	"github.com/kaelthys/atreia/internal/config"
	"github.com/kaelthys/atreia/internal/input"
)

func newTestResolver(t *testing.T, cfg *config.HunterCfg) (*Resolver, *Tracker) {
	t.Helper()
	tracker := NewTracker()
	eval := NewEvaluator(cfg, tracker)
	return NewResolver(cfg, eval, rand.New(rand.NewSource(1))), tracker
}

func TestComboFiresThenFallsBackWhileCoolingDown(t *testing.T) {
	cfg := testProfile(t)
	resolver, _ := newTestResolver(t, cfg)
	t0 := time.Now()

	plan := resolver.Resolve(ModeCombo, 100, 200, t0)
	if plan.Mode != ModeCombo || plan.Combo != "Rotation" {
		t.Fatalf("fresh combo should resolve, got mode %v combo %q", plan.Mode, plan.Combo)
	}
	resolver.Commit(plan, t0)

	// 5 seconds later the combo is cooling down and both member skills are
	// too, so the single-skill path is also exhausted. Terminal fallback is
	// a standard attack, never a no-op.
	later := resolver.Resolve(ModeCombo, 100, 200, t0.Add(5*time.Second))
	if later.Mode != ModeStandard {
		t.Fatalf("expected standard fallback, got %v", later.Mode)
	}
	if len(later.Actions) == 0 {
		t.Fatal("fallback plan must still act")
	}
	if later.MutatesCooldowns() {
		t.Error("standard fallback must not consume cooldowns")
	}
}

func TestComboFallsBackToReadySingleSkill(t *testing.T) {
	cfg := testProfile(t)
	resolver, tracker := newTestResolver(t, cfg)
	t0 := time.Now()

	// Put only the combo itself on cooldown; member skills stay ready.
	tracker.RecordUse("Rotation", t0)

	plan := resolver.Resolve(ModeCombo, 50, 60, t0.Add(time.Second))
	if plan.Mode != ModeSingleSkill {
		t.Fatalf("expected single-skill fallback, got %v", plan.Mode)
	}
	if plan.Skill.IsZero() {
		t.Error("single-skill plan must name the skill")
	}
}

func TestStandardModeNeverMutatesCooldowns(t *testing.T) {
	cfg := testProfile(t)
	resolver, tracker := newTestResolver(t, cfg)
	t0 := time.Now()

	plan := resolver.Resolve(ModeStandard, 10, 20, t0)
	if plan.Mode != ModeStandard {
		t.Fatalf("expected standard plan, got %v", plan.Mode)
	}
	resolver.Commit(plan, t0)

	if len(tracker.Snapshot()) != 0 {
		t.Error("standard attacks must leave the tracker untouched")
	}

	click, ok := plan.Actions[0].(input.Click)
	if !ok {
		t.Fatalf("standard plan should click, got %T", plan.Actions[0])
	}
	if click.Count != 2 {
		t.Errorf("standard attack is a double click, got count %d", click.Count)
	}
}

func TestGlobalCooldownBlocksSecondSingleSkill(t *testing.T) {
	cfg := testProfile(t)
	resolver, _ := newTestResolver(t, cfg)
	t0 := time.Now()

	first := resolver.Resolve(ModeSingleSkill, 0, 0, t0)
	if first.Mode != ModeSingleSkill {
		t.Fatalf("first resolve should yield a single skill, got %v", first.Mode)
	}
	resolver.Commit(first, t0)

	// 1.0s later the 1.5s global cooldown still holds, even though the other
	// pool skill never fired.
	second := resolver.Resolve(ModeSingleSkill, 0, 0, t0.Add(time.Second))
	if second.Mode != ModeStandard {
		t.Fatalf("global cooldown should force standard, got %v", second.Mode)
	}

	third := resolver.Resolve(ModeSingleSkill, 0, 0, t0.Add(1600*time.Millisecond))
	if third.Mode != ModeSingleSkill {
		t.Fatalf("after the global cooldown a ready skill should fire, got %v", third.Mode)
	}
	if third.Skill == first.Skill {
		t.Errorf("skill %s is still cooling down, should not repeat", first.Skill)
	}
}

func TestComboCommitIsAtomic(t *testing.T) {
	cfg := testProfile(t)
	resolver, tracker := newTestResolver(t, cfg)
	t0 := time.Now()

	plan := resolver.Resolve(ModeCombo, 0, 0, t0)
	if plan.Mode != ModeCombo {
		t.Fatalf("expected combo, got %v", plan.Mode)
	}
	resolver.Commit(plan, t0)

	snapshot := tracker.Snapshot()
	for _, id := range []string{"Rotation", "1", "2"} {
		ts, ok := snapshot[id]
		if !ok {
			t.Fatalf("commit missed id %q", id)
		}
		if !ts.Equal(t0) {
			t.Errorf("id %q stamped %v, want the single commit time %v", id, ts, t0)
		}
	}
}

func TestComboPlanInterleavesWaits(t *testing.T) {
	cfg := testProfile(t)
	cfg.Combos[0].SkillDelaySec = 1.2
	resolver, _ := newTestResolver(t, cfg)

	plan := resolver.Resolve(ModeCombo, 0, 0, time.Now())
	if plan.Mode != ModeCombo {
		t.Fatalf("expected combo, got %v", plan.Mode)
	}

	// Click, key, wait, key. No trailing wait after the last skill.
	if len(plan.Actions) != 4 {
		t.Fatalf("expected 4 actions for a 2-skill combo, got %d", len(plan.Actions))
	}
	if _, ok := plan.Actions[0].(input.Click); !ok {
		t.Errorf("first action should target-click, got %T", plan.Actions[0])
	}
	if _, ok := plan.Actions[2].(input.Wait); !ok {
		t.Errorf("expected wait between skills, got %T", plan.Actions[2])
	}
	if _, ok := plan.Actions[3].(input.PressKey); !ok {
		t.Errorf("plan must end on the final key press, got %T", plan.Actions[3])
	}

	wait := plan.Actions[2].(input.Wait).Duration
	base := 1200 * time.Millisecond
	lo := time.Duration(float64(base) * 0.85)
	hi := time.Duration(float64(base) * 1.15)
	if wait < lo || wait > hi {
		t.Errorf("inter-skill wait %v outside jitter range [%v, %v]", wait, lo, hi)
	}
}

func TestUncommittedPlanConsumesNothing(t *testing.T) {
	cfg := testProfile(t)
	resolver, tracker := newTestResolver(t, cfg)
	t0 := time.Now()

	plan := resolver.Resolve(ModeCombo, 0, 0, t0)
	if plan.Mode != ModeCombo {
		t.Fatalf("expected combo, got %v", plan.Mode)
	}

	// Resolve alone must not touch the tracker; a failed dispatch means the
	// plan is discarded and the combo stays ready.
	if len(tracker.Snapshot()) != 0 {
		t.Fatal("resolve must not consume cooldowns")
	}

	retry := resolver.Resolve(ModeCombo, 0, 0, t0.Add(time.Second))
	if retry.Mode != ModeCombo {
		t.Errorf("combo should still be ready after an uncommitted plan, got %v", retry.Mode)
	}
}
