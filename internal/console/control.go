package console

import "sync/atomic"

// Control models a UI control that is disabled while its call is in flight.
// It is the only guard against overlapping intents: a disabled control
// rejects the intent rather than queueing it.
type Control struct {
	disabled atomic.Bool
}

// Disable claims the control.  It returns false when the control is already
// disabled, meaning another call is in flight.
func (c *Control) Disable() bool { return c.disabled.CompareAndSwap(false, true) }

// Enable releases the control.
func (c *Control) Enable() { c.disabled.Store(false) }

// Disabled reports whether a call is in flight.
func (c *Control) Disabled() bool { return c.disabled.Load() }
