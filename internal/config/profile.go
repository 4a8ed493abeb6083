package config

import (
	"fmt"
	"math/rand"
	"time"
)

// DefaultSkillCooldown applies to keybinds referenced by a combo that have no
// explicit entry in the skills table (ad-hoc keybinds).
const DefaultSkillCooldown = 10 * time.Second

// AttackWeights is the categorical distribution over the three attack modes.
// The values do not need to sum to 1; the selector normalizes them. A
// non-positive sum degrades to standard-only at selection time, never here.
type AttackWeights struct {
	Standard    float64 `yaml:"standard"`
	SingleSkill float64 `yaml:"singleSkill"`
	Combo       float64 `yaml:"combo"`
}

// ComboSet is a named skill rotation executed as one action, with its own
// cooldown on top of the member skills' individual cooldowns.
type ComboSet struct {
	Name          string    `yaml:"name"`
	Skills        []Keybind `yaml:"skills"`
	CooldownSec   float64   `yaml:"cooldown"`
	SkillDelaySec float64   `yaml:"skillDelay"`
	Enabled       bool      `yaml:"enabled"`
}

func (c ComboSet) Cooldown() time.Duration {
	return secondsToDuration(c.CooldownSec)
}

func (c ComboSet) SkillDelay() time.Duration {
	return secondsToDuration(c.SkillDelaySec)
}

// StealthCfg holds the anti-detection timing policy: startup silence, warmup
// slowdown, steady-state action pacing and idle simulation. All durations are
// expressed in seconds in the profile file.
type StealthCfg struct {
	StartupDelayMinSec  float64 `yaml:"startupDelayMin"`
	StartupDelayMaxSec  float64 `yaml:"startupDelayMax"`
	WarmupActions       int     `yaml:"warmupActions"`
	WarmupExtraMinSec   float64 `yaml:"warmupExtraDelayMin"`
	WarmupExtraMaxSec   float64 `yaml:"warmupExtraDelayMax"`
	ActionDelayMinSec   float64 `yaml:"actionDelayMin"`
	ActionDelayMaxSec   float64 `yaml:"actionDelayMax"`
	IdleCheckIntervalSec float64 `yaml:"idleCheckInterval"`
	IdleProbability     float64 `yaml:"idleProbability"`
	IdleDurationMinSec  float64 `yaml:"idleDurationMin"`
	IdleDurationMaxSec  float64 `yaml:"idleDurationMax"`
	ClickJitterPx       int     `yaml:"clickJitterPx"`
	ClickBandMin        float64 `yaml:"clickBandMin"`
	ClickBandMax        float64 `yaml:"clickBandMax"`
	SkillDelayJitter    float64 `yaml:"skillDelayJitter"`
}

func (s StealthCfg) RandStartupDelay(r *rand.Rand) time.Duration {
	return randRange(r, s.StartupDelayMinSec, s.StartupDelayMaxSec)
}

func (s StealthCfg) RandWarmupExtra(r *rand.Rand) time.Duration {
	return randRange(r, s.WarmupExtraMinSec, s.WarmupExtraMaxSec)
}

func (s StealthCfg) RandActionDelay(r *rand.Rand) time.Duration {
	return randRange(r, s.ActionDelayMinSec, s.ActionDelayMaxSec)
}

func (s StealthCfg) RandIdleDuration(r *rand.Rand) time.Duration {
	return randRange(r, s.IdleDurationMinSec, s.IdleDurationMaxSec)
}

func (s StealthCfg) IdleCheckInterval() time.Duration {
	return secondsToDuration(s.IdleCheckIntervalSec)
}

// HunterCfg is one hunting profile: which window to drive, the skill and
// combo tables, attack-mode weights and the stealth timing policy. Loaded
// from config/<profile>/profile.yaml and treated as read-only by the engine.
type HunterCfg struct {
	CharacterName   string `yaml:"characterName"`
	GameWindowTitle string `yaml:"gameWindowTitle"`

	Detection struct {
		IntervalMs          int     `yaml:"intervalMs"`
		ConfidenceThreshold float64 `yaml:"confidenceThreshold"`
	} `yaml:"detection"`

	Attack struct {
		RequireHealthBar  bool          `yaml:"requireHealthBar"`
		GlobalCooldownSec float64       `yaml:"globalCooldown"`
		Weights           AttackWeights `yaml:"weights"`
		SingleSkillPool   []Keybind     `yaml:"singleSkillPool"`
	} `yaml:"attack"`

	// Skills maps keybind text to the skill cooldown in seconds.
	Skills map[string]float64 `yaml:"skills"`

	Combos []ComboSet `yaml:"combos"`

	Stealth StealthCfg `yaml:"stealth"`

	// MaxHuntDurationSec stops the supervisor after this long, 0 = unlimited.
	MaxHuntDurationSec int `yaml:"maxHuntDuration"`

	ConfigFolderName string `yaml:"-"`

	// Runtime holds parsed forms built by Validate, never serialized.
	Runtime struct {
		Skills map[Keybind]time.Duration
	} `yaml:"-"`
}

func (c *HunterCfg) GlobalCooldown() time.Duration {
	return secondsToDuration(c.Attack.GlobalCooldownSec)
}

func (c *HunterCfg) DetectionInterval() time.Duration {
	if c.Detection.IntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.Detection.IntervalMs) * time.Millisecond
}

func (c *HunterCfg) MaxHuntDuration() time.Duration {
	return time.Duration(c.MaxHuntDurationSec) * time.Second
}

// SkillCooldown returns the configured cooldown for a keybind, or
// DefaultSkillCooldown for ad-hoc keybinds that only appear inside combos.
func (c *HunterCfg) SkillCooldown(kb Keybind) time.Duration {
	if cd, ok := c.Runtime.Skills[kb]; ok {
		return cd
	}
	return DefaultSkillCooldown
}

// SingleSkillPool returns the configured pool, or every configured skill
// when the pool is empty.
func (c *HunterCfg) SingleSkillPool() []Keybind {
	if len(c.Attack.SingleSkillPool) > 0 {
		return c.Attack.SingleSkillPool
	}
	pool := make([]Keybind, 0, len(c.Runtime.Skills))
	for kb := range c.Runtime.Skills {
		pool = append(pool, kb)
	}
	return pool
}

// EnabledCombos returns the enabled combo sets in file order.
func (c *HunterCfg) EnabledCombos() []ComboSet {
	out := make([]ComboSet, 0, len(c.Combos))
	for _, combo := range c.Combos {
		if combo.Enabled {
			out = append(out, combo)
		}
	}
	return out
}

// Validate checks the profile invariants, applies defaults, and builds the
// parsed runtime tables. A profile that fails validation is rejected as a
// whole; the engine never starts on invalid state.
func (c *HunterCfg) Validate() error {
	c.applyDefaults()

	c.Runtime.Skills = make(map[Keybind]time.Duration, len(c.Skills))
	for raw, cooldownSec := range c.Skills {
		kb, err := ParseKeybind(raw)
		if err != nil {
			return err
		}
		if cooldownSec < 0 {
			return fmt.Errorf("skill %q has negative cooldown %v", raw, cooldownSec)
		}
		if _, dup := c.Runtime.Skills[kb]; dup {
			return fmt.Errorf("skill keybind %q configured twice", kb)
		}
		c.Runtime.Skills[kb] = secondsToDuration(cooldownSec)
	}

	if w := c.Attack.Weights; w.Standard < 0 || w.SingleSkill < 0 || w.Combo < 0 {
		return fmt.Errorf("attack mode weights must be non-negative, got (%v, %v, %v)",
			w.Standard, w.SingleSkill, w.Combo)
	}
	if c.Attack.GlobalCooldownSec < 0 {
		return fmt.Errorf("global cooldown must be non-negative, got %v", c.Attack.GlobalCooldownSec)
	}

	names := make(map[string]struct{}, len(c.Combos))
	for i, combo := range c.Combos {
		if combo.Name == "" {
			return fmt.Errorf("combo %d has no name", i)
		}
		if _, dup := names[combo.Name]; dup {
			return fmt.Errorf("duplicate combo name %q", combo.Name)
		}
		names[combo.Name] = struct{}{}
		if len(combo.Skills) == 0 {
			return fmt.Errorf("combo %q has an empty skill list", combo.Name)
		}
		if combo.CooldownSec < 0 {
			return fmt.Errorf("combo %q has negative cooldown %v", combo.Name, combo.CooldownSec)
		}
		if combo.SkillDelaySec < 0 {
			return fmt.Errorf("combo %q has negative skill delay %v", combo.Name, combo.SkillDelaySec)
		}
	}

	if s := c.Stealth; s.IdleProbability < 0 || s.IdleProbability > 1 {
		return fmt.Errorf("idle probability must be within [0, 1], got %v", s.IdleProbability)
	}

	return nil
}

func (c *HunterCfg) applyDefaults() {
	if c.Detection.IntervalMs == 0 {
		c.Detection.IntervalMs = 1000
	}
	if c.Detection.ConfidenceThreshold == 0 {
		c.Detection.ConfidenceThreshold = 0.25
	}
	s := &c.Stealth
	if s.StartupDelayMaxSec == 0 {
		s.StartupDelayMinSec, s.StartupDelayMaxSec = 8, 15
	}
	if s.WarmupActions == 0 {
		s.WarmupActions = 10
	}
	if s.WarmupExtraMaxSec == 0 {
		s.WarmupExtraMinSec, s.WarmupExtraMaxSec = 2, 5
	}
	if s.ActionDelayMaxSec == 0 {
		s.ActionDelayMinSec, s.ActionDelayMaxSec = 0.8, 2.0
	}
	if s.IdleCheckIntervalSec == 0 {
		s.IdleCheckIntervalSec = 30
	}
	if s.IdleDurationMaxSec == 0 {
		s.IdleDurationMinSec, s.IdleDurationMaxSec = 4, 12
	}
	if s.ClickJitterPx == 0 {
		s.ClickJitterPx = 15
	}
	if s.ClickBandMax == 0 {
		s.ClickBandMin, s.ClickBandMax = 0.70, 0.90
	}
	if s.SkillDelayJitter == 0 {
		s.SkillDelayJitter = 0.15
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func randRange(r *rand.Rand, minSec, maxSec float64) time.Duration {
	if maxSec <= minSec {
		return secondsToDuration(minSec)
	}
	return secondsToDuration(minSec + r.Float64()*(maxSec-minSec))
}
