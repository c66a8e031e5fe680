// Package condition implements the vocabulary of item activation conditions
// and decides, per frame, which items are active.
package condition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCondition is returned for names outside the Value vocabulary.
var ErrUnknownCondition = errors.New("unknown condition")

// Value is one fact that may hold for an evaluation context.
type Value uint8

const (
	ButtonA Value = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonStickLeft
	ButtonStickRight
	ButtonL
	ButtonR
	ButtonZL
	ButtonZR
	ButtonPlus
	ButtonMinus
	ButtonDpadLeft
	ButtonDpadUp
	ButtonDpadRight
	ButtonDpadDown
	ButtonCapture
	ButtonHome
	StickLeftActive
	StickRightActive
	Connected
	Connected0
	Connected1
	Connected2
	Connected3
	Connected4
	Connected5
	Connected6
	Connected7

	numValues
)

var names = [numValues]string{
	ButtonA:          "ButtonA",
	ButtonB:          "ButtonB",
	ButtonX:          "ButtonX",
	ButtonY:          "ButtonY",
	ButtonStickLeft:  "ButtonStickLeft",
	ButtonStickRight: "ButtonStickRight",
	ButtonL:          "ButtonL",
	ButtonR:          "ButtonR",
	ButtonZL:         "ButtonZL",
	ButtonZR:         "ButtonZR",
	ButtonPlus:       "ButtonPlus",
	ButtonMinus:      "ButtonMinus",
	ButtonDpadLeft:   "ButtonDpadLeft",
	ButtonDpadUp:     "ButtonDpadUp",
	ButtonDpadRight:  "ButtonDpadRight",
	ButtonDpadDown:   "ButtonDpadDown",
	ButtonCapture:    "ButtonCapture",
	ButtonHome:       "ButtonHome",
	StickLeftActive:  "StickLeftActive",
	StickRightActive: "StickRightActive",
	Connected:        "Connected",
	Connected0:       "Connected0",
	Connected1:       "Connected1",
	Connected2:       "Connected2",
	Connected3:       "Connected3",
	Connected4:       "Connected4",
	Connected5:       "Connected5",
	Connected6:       "Connected6",
	Connected7:       "Connected7",
}

var byName = func() map[string]Value {
	m := make(map[string]Value, numValues)
	for v, name := range names {
		m[name] = Value(v)
	}
	return m
}()

func (v Value) String() string {
	if v < numValues {
		return names[v]
	}
	return fmt.Sprintf("Value(%d)", uint8(v))
}

// Values lists the whole vocabulary in declaration order.
func Values() []Value {
	vs := make([]Value, numValues)
	for i := range vs {
		vs[i] = Value(i)
	}
	return vs
}

// ParseValue maps an exact, case-sensitive name to its Value.
func ParseValue(name string) (Value, error) {
	v, ok := byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCondition, name)
	}
	return v, nil
}

// ConnectedID returns the ConnectedN value for controller id 0..7.
func ConnectedID(id uint8) (Value, bool) {
	if id > 7 {
		return 0, false
	}
	return Connected0 + Value(id), true
}

// Condition is one entry of an item's "if" list.
type Condition struct {
	Negated bool
	Value   Value
}

// Parse decodes "Name" or "!Name".
func Parse(s string) (Condition, error) {
	rest, negated := strings.CutPrefix(s, "!")
	v, err := ParseValue(rest)
	if err != nil {
		return Condition{}, err
	}
	return Condition{Negated: negated, Value: v}, nil
}

func (c Condition) String() string {
	if c.Negated {
		return "!" + c.Value.String()
	}
	return c.Value.String()
}

// MarshalText prints the condition in config form.
func (c Condition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Set is the collection of values that hold in one evaluation context.
type Set uint32

func (s *Set) Add(v Value) {
	*s |= 1 << v
}

func (s Set) Has(v Value) bool {
	return v < numValues && s&(1<<v) != 0
}

func (s *Set) Reset() {
	*s = 0
}

// Len returns the number of values in s.
func (s Set) Len() int {
	n := 0
	for v := Value(0); v < numValues; v++ {
		if s.Has(v) {
			n++
		}
	}
	return n
}

func (s Set) String() string {
	var parts []string
	for v := Value(0); v < numValues; v++ {
		if s.Has(v) {
			parts = append(parts, v.String())
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Active reports whether every condition holds for set. An empty list is
// always active.
func Active(set Set, conds []Condition) bool {
	for _, c := range conds {
		if set.Has(c.Value) == c.Negated {
			return false
		}
	}
	return true
}
