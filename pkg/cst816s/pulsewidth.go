package cst816s

import (
	"fmt"
	"time"

	"github.com/hwbits/go-cst816s/pkg/hal"
)

// PulseWidth is the interrupt low pulse duration in units of 0.1ms. The
// hardware accepts 1 to 200, construct values with NewPulseWidth so that an
// out of range request is rejected before it reaches the bus.
type PulseWidth uint8

const (
	minPulseWidth     = 1
	maxPulseWidth     = 200
	defaultPulseWidth = PulseWidth(10)
)

func NewPulseWidth(value uint8) (PulseWidth, error) {
	if value < minPulseWidth || value > maxPulseWidth {
		return 0, fmt.Errorf("failed to validate pulse width %d, valid range is %d-%d: %w",
			value, minPulseWidth, maxPulseWidth, hal.ErrValidation)
	}
	return PulseWidth(value), nil
}

// Duration returns the pulse length as a time.Duration
func (obj PulseWidth) Duration() time.Duration {
	return time.Duration(obj) * 100 * time.Microsecond
}
