package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Modifier is the optional modifier half of a skill keybind.
type Modifier string

const (
	ModNone Modifier = ""
	ModAlt  Modifier = "alt"
	ModCtrl Modifier = "ctrl"
)

// baseKeys is the fixed set of base keys the AION skill bar exposes: the
// number row plus minus and equals. Combined with the three modifier states
// this yields the 36 addressable skill slots.
const baseKeys = "1234567890-="

// Keybind identifies one physical skill-bar input: a base key plus an
// optional alt/ctrl modifier. Keybinds are immutable value identifiers and
// are used as cooldown-tracker keys via String().
type Keybind struct {
	Key byte
	Mod Modifier
}

// ParseKeybind parses the textual keybind form used in profile files:
// "1", "alt+5", "ctrl+=". Parsing is case-insensitive.
func ParseKeybind(s string) (Keybind, error) {
	raw := strings.ToLower(strings.TrimSpace(s))

	var mod Modifier
	switch {
	case strings.HasPrefix(raw, "alt+"):
		mod = ModAlt
		raw = strings.TrimPrefix(raw, "alt+")
	case strings.HasPrefix(raw, "ctrl+"):
		mod = ModCtrl
		raw = strings.TrimPrefix(raw, "ctrl+")
	}

	if len(raw) != 1 || !strings.ContainsRune(baseKeys, rune(raw[0])) {
		return Keybind{}, fmt.Errorf("invalid keybind %q: base key must be one of [%s]", s, baseKeys)
	}

	return Keybind{Key: raw[0], Mod: mod}, nil
}

// MustKeybind is a helper for tests and hardcoded defaults.
func MustKeybind(s string) Keybind {
	kb, err := ParseKeybind(s)
	if err != nil {
		panic(err)
	}
	return kb
}

func (k Keybind) String() string {
	if k.Mod == ModNone {
		return string(k.Key)
	}
	return string(k.Mod) + "+" + string(k.Key)
}

// IsZero reports whether the keybind is unset.
func (k Keybind) IsZero() bool {
	return k.Key == 0
}

func (k Keybind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (k *Keybind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	kb, err := ParseKeybind(s)
	if err != nil {
		return err
	}
	*k = kb
	return nil
}
