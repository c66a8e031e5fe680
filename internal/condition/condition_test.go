package condition

import (
	"errors"
	"testing"

	"github.com/soar/periscope/internal/gamepad"
)

func set(vs ...Value) Set {
	var s Set
	for _, v := range vs {
		s.Add(v)
	}
	return s
}

func conds(t *testing.T, ss ...string) []Condition {
	t.Helper()
	out := make([]Condition, 0, len(ss))
	for _, s := range ss {
		c, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		out = append(out, c)
	}
	return out
}

func TestParse(t *testing.T) {
	c, err := Parse("!Connected1")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Negated || c.Value != Connected1 || c.String() != "!Connected1" {
		t.Fatalf("got %+v", c)
	}

	c, err = Parse("ButtonZL")
	if err != nil || c.Negated || c.Value != ButtonZL {
		t.Fatalf("got %+v, %v", c, err)
	}
}

func TestParseUnknown(t *testing.T) {
	for _, s := range []string{"", "!", "buttona", "ButtonQ", "!!ButtonA", " ButtonA", "Connected8"} {
		if _, err := Parse(s); !errors.Is(err, ErrUnknownCondition) {
			t.Errorf("Parse(%q) err = %v", s, err)
		}
	}
}

func TestEveryNameRoundTrips(t *testing.T) {
	vs := Values()
	if len(vs) != 29 {
		t.Fatalf("vocabulary has %d values", len(vs))
	}
	for _, v := range vs {
		got, err := ParseValue(v.String())
		if err != nil || got != v {
			t.Errorf("ParseValue(%q) = %v, %v", v.String(), got, err)
		}
	}
}

func TestActive(t *testing.T) {
	tests := []struct {
		name   string
		active Set
		conds  []string
		want   bool
	}{
		{"empty list, empty set", set(), nil, true},
		{"empty list, full set", set(Values()...), nil, true},
		{"positive present", set(ButtonA), []string{"ButtonA"}, true},
		{"positive absent", set(ButtonB), []string{"ButtonA"}, false},
		{"all positive present", set(ButtonA, ButtonB, Connected), []string{"ButtonA", "ButtonB"}, true},
		{"all positive one missing", set(ButtonA), []string{"ButtonA", "ButtonB"}, false},
		{"all negated none present", set(Connected), []string{"!ButtonA", "!ButtonB"}, true},
		{"all negated one present", set(ButtonB), []string{"!ButtonA", "!ButtonB"}, false},
		{"mixed A held, 1 absent", set(ButtonA), []string{"ButtonA", "!Connected1"}, true},
		{"mixed A held, 1 present", set(ButtonA, Connected1), []string{"ButtonA", "!Connected1"}, false},
		{"mixed A released", set(), []string{"ButtonA", "!Connected1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := conds(t, tt.conds...)
			if got := Active(tt.active, cs); got != tt.want {
				t.Fatalf("Active(%v, %v) = %v, want %v", tt.active, tt.conds, got, tt.want)
			}
			// AND is order independent.
			rev := make([]Condition, len(cs))
			for i, c := range cs {
				rev[len(cs)-1-i] = c
			}
			if got := Active(tt.active, rev); got != tt.want {
				t.Fatalf("reversed list gave %v", got)
			}
		})
	}
}

func TestGlobalSet(t *testing.T) {
	s := GlobalSet([]gamepad.Snapshot{
		{ID: 0, Connected: 1},
		{ID: 1, Connected: 0},
		{ID: 2, Connected: 2},
		{ID: 7, Connected: 1},
		{ID: 9, Connected: 1},
	})
	if s != set(Connected0, Connected7) {
		t.Fatalf("got %v", s)
	}
	if s.Has(Connected) {
		t.Fatal("the generic Connected flag is per-controller only")
	}
}

func TestControllerSetButtons(t *testing.T) {
	s := ControllerSet(gamepad.Snapshot{ID: 3, Connected: 1, Buttons: 1}, 0)
	if s != set(Connected, ButtonA) {
		t.Fatalf("bit 0: got %v", s)
	}

	s = ControllerSet(gamepad.Snapshot{Buttons: 1 << 15}, 0)
	if s != set(ButtonDpadDown) {
		t.Fatalf("bit 15: got %v", s)
	}

	s = ControllerSet(gamepad.Snapshot{Connected: 1, Buttons: 0xFFFF0000}, 0)
	if s != set(Connected) {
		t.Fatalf("high bits must be ignored: got %v", s)
	}

	s = ControllerSet(gamepad.Snapshot{Buttons: 0xFFFF}, 0)
	if s.Len() != 16 || s.Has(ButtonCapture) || s.Has(ButtonHome) {
		t.Fatalf("all 16 bits: got %v", s)
	}
}

func TestControllerSetStickActivity(t *testing.T) {
	snap := gamepad.Snapshot{Left: gamepad.Stick{X: 16000}, Right: gamepad.Stick{Y: 100}}

	if s := ControllerSet(snap, 0); s.Has(StickLeftActive) || s.Has(StickRightActive) {
		t.Fatalf("stick flags derived without a deadzone: %v", s)
	}

	s := ControllerSet(snap, 0.2)
	if !s.Has(StickLeftActive) || s.Has(StickRightActive) {
		t.Fatalf("deadzone 0.2: got %v", s)
	}
}
