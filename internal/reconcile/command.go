// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"fmt"

	"github.com/ManuGH/boomctl/internal/boombox"
)

// Command is either a ModeSwitch or a ValueCommand.
type Command interface {
	// Kind labels the command in logs and metrics.
	Kind() string
	Validate() error
	// TargetMode reports the mode the command switches to, if any.
	TargetMode() (boombox.Mode, bool)

	command()
}

// ModeSwitch changes the operating mode and nothing else.
type ModeSwitch struct {
	Mode boombox.Mode
}

func (ModeSwitch) command() {}
func (ModeSwitch) Kind() string { return "mode_switch" }

func (c ModeSwitch) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	return nil
}

func (c ModeSwitch) TargetMode() (boombox.Mode, bool) { return c.Mode, true }

// ValueCommand sets one appliance parameter. Mode is optional; when set the
// appliance also switches to it.
type ValueCommand struct {
	Control boombox.ControlCode
	Value   int
	Mode    boombox.Mode
}

func (ValueCommand) command() {}

func (c ValueCommand) Kind() string { return c.Control.String() }

func (c ValueCommand) Validate() error {
	if !c.Control.Valid() {
		return fmt.Errorf("%w: control %d", ErrInvalidCommand, int(c.Control))
	}
	if c.Mode != "" && !c.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	return nil
}

func (c ValueCommand) TargetMode() (boombox.Mode, bool) {
	return c.Mode, c.Mode != ""
}

// ToWire converts a command to the /control request body.
func ToWire(cmd Command) boombox.ControlRequest {
	switch c := cmd.(type) {
	case ModeSwitch:
		return boombox.ControlRequest{Control: int(boombox.ControlNone), Value: 0, Mode: string(c.Mode)}
	case ValueCommand:
		return boombox.ControlRequest{Control: int(c.Control), Value: c.Value, Mode: string(c.Mode)}
	default:
		return boombox.ControlRequest{}
	}
}

// ParseCommand builds a command from its wire shape. Control 0 with a mode is
// a mode switch.
func ParseCommand(control, value int, mode string) (Command, error) {
	var m boombox.Mode
	if mode != "" {
		parsed, ok := boombox.ParseMode(mode)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
		}
		m = parsed
	}
	if control == int(boombox.ControlNone) {
		if m == "" {
			return nil, fmt.Errorf("%w: control 0 requires a mode", ErrInvalidCommand)
		}
		return ModeSwitch{Mode: m}, nil
	}
	cmd := ValueCommand{Control: boombox.ControlCode(control), Value: value, Mode: m}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}
