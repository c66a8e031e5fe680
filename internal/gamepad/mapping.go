package gamepad

import "math"

// MaxAxis is the nominal full deflection of a raw stick axis.
const MaxAxis = 32767

// Button identifies a named controller button. The first MaskedButtons values
// are also the bit positions in Snapshot.Buttons.
type Button uint8

const (
	ButtonA Button = iota
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

	// Capture and Home have names but no bit in the mask.
	ButtonCapture
	ButtonHome
)

// MaskedButtons is how many low bits of the button mask carry buttons.
// Higher bits are ignored.
const MaskedButtons = 16

var buttonNames = [...]string{
	ButtonA:          "A",
	ButtonB:          "B",
	ButtonX:          "X",
	ButtonY:          "Y",
	ButtonStickLeft:  "StickLeft",
	ButtonStickRight: "StickRight",
	ButtonL:          "L",
	ButtonR:          "R",
	ButtonZL:         "ZL",
	ButtonZR:         "ZR",
	ButtonPlus:       "Plus",
	ButtonMinus:      "Minus",
	ButtonDpadLeft:   "DpadLeft",
	ButtonDpadUp:     "DpadUp",
	ButtonDpadRight:  "DpadRight",
	ButtonDpadDown:   "DpadDown",
	ButtonCapture:    "Capture",
	ButtonHome:       "Home",
}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "Unknown"
}

// Pressed reports whether b's bit is set. Buttons without a bit are never pressed.
func (s Snapshot) Pressed(b Button) bool {
	if b >= MaskedButtons {
		return false
	}
	return s.Buttons&(1<<b) != 0
}

// NormalizeAxis converts a raw axis value to -1.0..1.0. Values past full
// deflection are kept as is.
func NormalizeAxis(raw float32) float64 {
	return float64(raw) / MaxAxis
}

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

// Deflection is the normalized distance of the stick from centre.
func (s Stick) Deflection() float64 {
	return math.Hypot(NormalizeAxis(s.X), NormalizeAxis(s.Y))
}
