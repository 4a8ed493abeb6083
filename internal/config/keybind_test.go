package config

import "testing"

func TestParseKeybind(t *testing.T) {
	cases := []struct {
		in   string
		want Keybind
	}{
		{"1", Keybind{Key: '1'}},
		{"0", Keybind{Key: '0'}},
		{"-", Keybind{Key: '-'}},
		{"=", Keybind{Key: '='}},
		{"alt+5", Keybind{Key: '5', Mod: ModAlt}},
		{"ctrl+=", Keybind{Key: '=', Mod: ModCtrl}},
		{"ALT+3", Keybind{Key: '3', Mod: ModAlt}},
		{" ctrl+7 ", Keybind{Key: '7', Mod: ModCtrl}},
	}

	for _, tc := range cases {
		got, err := ParseKeybind(tc.in)
		if err != nil {
			t.Errorf("ParseKeybind(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseKeybind(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseKeybindRejectsInvalidInput(t *testing.T) {
	for _, in := range []string{"", "a", "11", "shift+1", "alt+", "alt+q", "ctrl+00"} {
		if _, err := ParseKeybind(in); err == nil {
			t.Errorf("ParseKeybind(%q) should fail", in)
		}
	}
}

func TestKeybindStringRoundTrip(t *testing.T) {
	for _, in := range []string{"1", "alt+5", "ctrl+-"} {
		kb := MustKeybind(in)
		back, err := ParseKeybind(kb.String())
		if err != nil {
			t.Fatalf("reparsing %q failed: %v", kb.String(), err)
		}
		if back != kb {
			t.Errorf("round trip changed %q into %q", in, back.String())
		}
	}
}
