package condition

import "github.com/soar/periscope/internal/gamepad"

// buttonValues maps mask bit i to its Value.
var buttonValues = [gamepad.MaskedButtons]Value{
	gamepad.ButtonA:          ButtonA,
	gamepad.ButtonB:          ButtonB,
	gamepad.ButtonX:          ButtonX,
	gamepad.ButtonY:          ButtonY,
	gamepad.ButtonStickLeft:  ButtonStickLeft,
	gamepad.ButtonStickRight: ButtonStickRight,
	gamepad.ButtonL:          ButtonL,
	gamepad.ButtonR:          ButtonR,
	gamepad.ButtonZL:         ButtonZL,
	gamepad.ButtonZR:         ButtonZR,
	gamepad.ButtonPlus:       ButtonPlus,
	gamepad.ButtonMinus:      ButtonMinus,
	gamepad.ButtonDpadLeft:   ButtonDpadLeft,
	gamepad.ButtonDpadUp:     ButtonDpadUp,
	gamepad.ButtonDpadRight:  ButtonDpadRight,
	gamepad.ButtonDpadDown:   ButtonDpadDown,
}

// GlobalSet holds ConnectedN for every connected controller with id 0..7.
func GlobalSet(snaps []gamepad.Snapshot) Set {
	var set Set
	for _, s := range snaps {
		if !s.IsConnected() {
			continue
		}
		if v, ok := ConnectedID(s.ID); ok {
			set.Add(v)
		}
	}
	return set
}

// ControllerSet derives the values for one controller's layout. Stick
// activity is only derived when deadzone is positive.
func ControllerSet(s gamepad.Snapshot, deadzone float64) Set {
	var set Set
	if s.IsConnected() {
		set.Add(Connected)
	}
	for bit, v := range buttonValues {
		if s.Pressed(gamepad.Button(bit)) {
			set.Add(v)
		}
	}
	if deadzone > 0 {
		if gamepad.ApplyDeadzone(s.Left.Deflection(), deadzone) != 0 {
			set.Add(StickLeftActive)
		}
		if gamepad.ApplyDeadzone(s.Right.Deflection(), deadzone) != 0 {
			set.Add(StickRightActive)
		}
	}
	return set
}
