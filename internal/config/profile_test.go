package config

import (
	"math/rand"
	"testing"
	"time"
)

func validProfile() *HunterCfg {
	cfg := &HunterCfg{
		CharacterName:   "Tester",
		GameWindowTitle: "AION",
		Skills: map[string]float64{
			"1":     8,
			"alt+1": 45,
		},
		Combos: []ComboSet{
			{
				Name:        "Opener",
				Skills:      []Keybind{MustKeybind("1"), MustKeybind("alt+1")},
				CooldownSec: 30,
				Enabled:     true,
			},
		},
	}
	cfg.Attack.Weights = AttackWeights{Standard: 0.5, SingleSkill: 0.3, Combo: 0.2}
	return cfg
}

func TestValidateBuildsRuntimeSkillTable(t *testing.T) {
	cfg := validProfile()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	if got := cfg.SkillCooldown(MustKeybind("1")); got != 8*time.Second {
		t.Errorf("skill 1 cooldown = %v, want 8s", got)
	}
	if got := cfg.SkillCooldown(MustKeybind("alt+1")); got != 45*time.Second {
		t.Errorf("skill alt+1 cooldown = %v, want 45s", got)
	}
	if got := cfg.SkillCooldown(MustKeybind("ctrl+9")); got != DefaultSkillCooldown {
		t.Errorf("ad-hoc keybind cooldown = %v, want default %v", got, DefaultSkillCooldown)
	}
}

func TestValidateAppliesStealthDefaults(t *testing.T) {
	cfg := validProfile()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	s := cfg.Stealth
	if s.StartupDelayMinSec != 8 || s.StartupDelayMaxSec != 15 {
		t.Errorf("startup delay defaults = [%v, %v], want [8, 15]", s.StartupDelayMinSec, s.StartupDelayMaxSec)
	}
	if s.WarmupActions != 10 {
		t.Errorf("warmup actions default = %d, want 10", s.WarmupActions)
	}
	if s.ClickBandMin != 0.70 || s.ClickBandMax != 0.90 {
		t.Errorf("click band defaults = [%v, %v], want [0.70, 0.90]", s.ClickBandMin, s.ClickBandMax)
	}
	if cfg.Detection.IntervalMs != 1000 {
		t.Errorf("detection interval default = %d, want 1000", cfg.Detection.IntervalMs)
	}
}

func TestValidateRejectsBadProfiles(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*HunterCfg)
	}{
		{"invalid skill keybind", func(c *HunterCfg) { c.Skills["shift+1"] = 5 }},
		{"negative skill cooldown", func(c *HunterCfg) { c.Skills["2"] = -1 }},
		{"negative weight", func(c *HunterCfg) { c.Attack.Weights.Combo = -0.1 }},
		{"negative global cooldown", func(c *HunterCfg) { c.Attack.GlobalCooldownSec = -1 }},
		{"unnamed combo", func(c *HunterCfg) { c.Combos[0].Name = "" }},
		{"duplicate combo name", func(c *HunterCfg) { c.Combos = append(c.Combos, c.Combos[0]) }},
		{"empty combo skills", func(c *HunterCfg) { c.Combos[0].Skills = nil }},
		{"negative combo cooldown", func(c *HunterCfg) { c.Combos[0].CooldownSec = -5 }},
		{"negative combo skill delay", func(c *HunterCfg) { c.Combos[0].SkillDelaySec = -1 }},
		{"idle probability above one", func(c *HunterCfg) { c.Stealth.IdleProbability = 1.5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validProfile()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation to fail")
			}
		})
	}
}

func TestSingleSkillPoolFallsBackToAllSkills(t *testing.T) {
	cfg := validProfile()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	pool := cfg.SingleSkillPool()
	if len(pool) != 2 {
		t.Fatalf("empty pool should fall back to all %d skills, got %d", 2, len(pool))
	}

	cfg.Attack.SingleSkillPool = []Keybind{MustKeybind("1")}
	pool = cfg.SingleSkillPool()
	if len(pool) != 1 || pool[0] != MustKeybind("1") {
		t.Errorf("explicit pool should win, got %v", pool)
	}
}

func TestEnabledCombosPreservesFileOrder(t *testing.T) {
	cfg := validProfile()
	cfg.Combos = append(cfg.Combos,
		ComboSet{Name: "Disabled", Skills: []Keybind{MustKeybind("2")}, Enabled: false},
		ComboSet{Name: "Second", Skills: []Keybind{MustKeybind("3")}, Enabled: true},
	)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	enabled := cfg.EnabledCombos()
	if len(enabled) != 2 || enabled[0].Name != "Opener" || enabled[1].Name != "Second" {
		t.Errorf("unexpected enabled combos: %v", enabled)
	}
}

func TestStealthRandomRangesStayInBounds(t *testing.T) {
	cfg := validProfile()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		if d := cfg.Stealth.RandStartupDelay(rng); d < 8*time.Second || d > 15*time.Second {
			t.Fatalf("startup delay %v out of [8s, 15s]", d)
		}
		if d := cfg.Stealth.RandActionDelay(rng); d < 800*time.Millisecond || d > 2*time.Second {
			t.Fatalf("action delay %v out of [0.8s, 2s]", d)
		}
	}
}
