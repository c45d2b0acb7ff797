package hal

import "time"

// Bus is a register addressed bus master. One call is one bus transaction:
// w is written, then r is filled in the same transaction. addr is the 7 bit
// device address. Implementations must not split the call into multiple
// transactions, register reads depend on the write and read phases sharing
// one START/STOP pair.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// IntPin reads the touch interrupt line. The line is active low, the
// controller pulls it down while an event is pending.
type IntPin interface {
	IsLow() (bool, error)
}

// ResetPin drives the controller reset line, also active low
type ResetPin interface {
	SetLow() error
	SetHigh() error
}

// Delay suspends the caller, millisecond granularity is enough
type Delay interface {
	Sleep(d time.Duration)
}

// EventWaiter is implemented by handlers that can block on the interrupt
// line edge instead of being polled. WaitForAssert returns nil as soon as
// the line is asserted and an error when timeout expires first.
type EventWaiter interface {
	WaitForAssert(timeout time.Duration) error
}

// HWHandler bundles everything the touch module needs from the board: the
// register bus, both control lines and a sleep primitive. Platform packages
// provide implementations, the driver stays hardware agnostic.
type HWHandler interface {
	Bus
	IntPin
	ResetPin
	Delay
}
