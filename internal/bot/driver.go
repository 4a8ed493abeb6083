package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/kaelthys/atreia/internal/combat"
	"github.com/kaelthys/atreia/internal/config"
	"github.com/kaelthys/atreia/internal/detect"
	"github.com/kaelthys/atreia/internal/event"
	"github.com/kaelthys/atreia/internal/input"
)

// Phase is the anti-detection state of the driver. The progression is
// strictly one-way: Idle → Warmup → Steady, advanced once per process and
// never revisited.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWarmup
	PhaseSteady
)

func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "warmup"
	case PhaseSteady:
		return "steady"
	default:
		return "idle"
	}
}

// Driver runs the per-tick hunt loop: read a detection snapshot, pick an
// attack mode, resolve it into primitive actions, dispatch them and record
// cooldowns. All pacing between actions comes from the stealth timing
// policy; the dispatch primitives themselves carry no timeouts.
type Driver struct {
	name       string
	cfg        *config.HunterCfg
	logger     *slog.Logger
	dispatcher input.Dispatcher
	source     detect.Source
	feed       *detect.Feed

	tracker  *combat.Tracker
	eval     *combat.Evaluator
	resolver *combat.Resolver
	rng      *rand.Rand

	// now and sleep are injectable for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool

	mu            sync.Mutex
	phase         Phase
	actionCount   int
	startedAt     time.Time
	lastIdleCheck time.Time
}

// Option tweaks driver construction.
type Option func(*Driver)

// WithRand injects a deterministic random source.
func WithRand(r *rand.Rand) Option {
	return func(d *Driver) {
		d.rng = r
		d.resolver = combat.NewResolver(d.cfg, d.eval, r)
	}
}

// WithClock injects the time source and the pause primitive. The pause
// function returns false when the wait was cut short by cancellation.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) bool) Option {
	return func(d *Driver) {
		d.now = now
		d.sleep = sleep
	}
}

func NewDriver(name string, cfg *config.HunterCfg, logger *slog.Logger, dispatcher input.Dispatcher, source detect.Source, opts ...Option) *Driver {
	tracker := combat.NewTracker()
	eval := combat.NewEvaluator(cfg, tracker)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	d := &Driver{
		name:       name,
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatcher,
		source:     source,
		feed:       detect.NewFeed(),
		tracker:    tracker,
		eval:       eval,
		resolver:   combat.NewResolver(cfg, eval, rng),
		rng:        rng,
		now:        time.Now,
		sleep:      ctxSleep,
		phase:      PhaseIdle,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func ctxSleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// Run executes the hunt loop until ctx is cancelled or the configured max
// hunt duration elapses. Cancellation is checked at the top of every tick,
// before any side-effecting call; an action already selected is discarded
// once a stop is observed.
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	d.startedAt = d.now()
	d.lastIdleCheck = d.now()
	d.mu.Unlock()

	// Idle phase: stay silent for the startup delay no matter what the
	// detector sees. Acting the instant the tool launches is exactly the
	// signature the anti-cheat heuristics look for.
	startup := d.cfg.Stealth.RandStartupDelay(d.rng)
	d.logger.Info("Startup delay before hunting", slog.String("phase", d.phase.String()), slog.Duration("delay", startup))
	if !d.sleep(ctx, startup) {
		return nil
	}

	d.advancePhase()
	event.Send(event.HuntStarted(event.Text(d.name, fmt.Sprintf("Hunting started (%s)", d.cfg.CharacterName))))

	for {
		if ctx.Err() != nil {
			return nil
		}

		if maxDur := d.cfg.MaxHuntDuration(); maxDur > 0 && d.now().Sub(d.startedAt) > maxDur {
			d.logger.Info("Max hunt duration reached, stopping", slog.Duration("duration", maxDur))
			return nil
		}

		// Idle simulation runs before mode selection: an idle tick performs
		// no detection-driven action and consumes no cooldown.
		if d.maybeSimulateIdle(ctx) {
			continue
		}

		snapshot, err := d.source.Detect()
		if err != nil {
			d.logger.Debug("Detection failed", slog.Any("error", err))
			if !d.sleep(ctx, d.cfg.DetectionInterval()) {
				return nil
			}
			continue
		}
		d.feed.Publish(snapshot)

		target, found := snapshot.FindTarget(d.cfg.Detection.ConfidenceThreshold)
		if !found {
			if !d.sleep(ctx, d.cfg.DetectionInterval()) {
				return nil
			}
			continue
		}

		gateOpen := !d.cfg.Attack.RequireHealthBar || snapshot.AbilityGate()
		x, y := detect.ClickPoint(target, d.cfg.Stealth, d.rng)

		mode := combat.ChooseMode(d.cfg.Attack.Weights, gateOpen, d.rng)
		plan := d.resolver.Resolve(mode, x, y, d.now())

		// Re-check the stop signal after selection: nothing is dispatched
		// once a stop was observed, even with a plan in hand.
		if ctx.Err() != nil {
			return nil
		}

		if err := d.dispatcher.Dispatch(ctx, plan.Actions...); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			// The action did not happen, so its cooldowns are not consumed.
			d.logger.Warn("Action dispatch failed, skipping cooldown commit", slog.Any("error", err))
		} else {
			d.resolver.Commit(plan, d.now())
			d.recordAction(plan)
		}

		if !d.sleep(ctx, d.postActionDelay()) {
			return nil
		}
	}
}

// advancePhase moves Idle→Warmup, or straight to Steady when no warmup is
// configured. Transitions are never reversed.
func (d *Driver) advancePhase() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != PhaseIdle {
		return
	}
	if d.cfg.Stealth.WarmupActions > 0 {
		d.phase = PhaseWarmup
	} else {
		d.phase = PhaseSteady
	}
}

func (d *Driver) recordAction(plan combat.Plan) {
	d.mu.Lock()
	d.actionCount++
	if d.phase == PhaseWarmup && d.actionCount >= d.cfg.Stealth.WarmupActions {
		d.phase = PhaseSteady
		d.logger.Info("Warmup complete", slog.Int("actions", d.actionCount))
	}
	d.mu.Unlock()

	switch plan.Mode {
	case combat.ModeCombo:
		d.logger.Info("Combo executed", slog.String("combo", plan.Combo))
		event.Send(event.ComboExecuted(event.Text(d.name, fmt.Sprintf("Combo %q executed", plan.Combo)), plan.Combo))
	case combat.ModeSingleSkill:
		d.logger.Debug("Single skill executed", slog.String("skill", plan.Skill.String()))
	default:
		d.logger.Debug("Standard attack executed")
	}
}

// maybeSimulateIdle rolls the idle-simulation check once per configured
// interval and, on a hit, pauses for a humanized "thinking" break. Returns
// true when this tick was consumed by idling.
func (d *Driver) maybeSimulateIdle(ctx context.Context) bool {
	d.mu.Lock()
	if d.phase != PhaseSteady || d.now().Sub(d.lastIdleCheck) < d.cfg.Stealth.IdleCheckInterval() {
		d.mu.Unlock()
		return false
	}
	d.lastIdleCheck = d.now()
	d.mu.Unlock()

	if d.rng.Float64() >= d.cfg.Stealth.IdleProbability {
		return false
	}

	idle := d.cfg.Stealth.RandIdleDuration(d.rng)
	d.logger.Info("Simulating idle pause", slog.Duration("duration", idle))
	d.sleep(ctx, idle)
	return true
}

// postActionDelay draws the pause that follows a dispatched action. Warmup
// actions carry the configured extra delay on top of the steady-state range.
func (d *Driver) postActionDelay() time.Duration {
	delay := d.cfg.Stealth.RandActionDelay(d.rng)
	d.mu.Lock()
	warmup := d.phase == PhaseWarmup
	d.mu.Unlock()
	if warmup {
		delay += d.cfg.Stealth.RandWarmupExtra(d.rng)
	}
	return delay
}

// CooldownStatus is one row of the dashboard cooldown table.
type CooldownStatus struct {
	ID           string  `json:"id"`
	RemainingSec float64 `json:"remainingSec"`
}

// Status is a point-in-time view of the driver for the dashboard.
type Status struct {
	Phase     string           `json:"phase"`
	Actions   int              `json:"actions"`
	StartedAt time.Time        `json:"startedAt"`
	Skills    []CooldownStatus `json:"skills"`
	Combos    []CooldownStatus `json:"combos"`
}

func (d *Driver) Status() Status {
	d.mu.Lock()
	st := Status{
		Phase:     d.phase.String(),
		Actions:   d.actionCount,
		StartedAt: d.startedAt,
	}
	d.mu.Unlock()

	now := d.now()
	for kb := range d.cfg.Runtime.Skills {
		st.Skills = append(st.Skills, CooldownStatus{
			ID:           kb.String(),
			RemainingSec: d.eval.SkillRemaining(kb, now).Seconds(),
		})
	}
	sort.Slice(st.Skills, func(i, j int) bool { return st.Skills[i].ID < st.Skills[j].ID })
	for _, combo := range d.cfg.EnabledCombos() {
		st.Combos = append(st.Combos, CooldownStatus{
			ID:           combo.Name,
			RemainingSec: d.eval.ComboRemaining(combo, now).Seconds(),
		})
	}
	return st
}

// Feed exposes the latest-snapshot handoff for the dashboard overlay.
func (d *Driver) Feed() *detect.Feed {
	return d.feed
}

// ClearCooldowns resets all cooldown bookkeeping.
func (d *Driver) ClearCooldowns() {
	d.tracker.Clear()
}
