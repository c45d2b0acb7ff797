//go:build pico

package pico

import (
	"machine"
	"time"
)

// HWHandler drives the touch controller pins and I2C bus on TinyGo targets.
// It implements hal.HWHandler, there is no event waiter here, the sampling
// loop polls the interrupt pin.
type HWHandler struct {
	bus      *machine.I2C
	IntPin   machine.Pin
	ResetPin machine.Pin
}

// NewHWHandler configures the I2C bus at 400kHz, the interrupt pin as a
// pulled up input and the reset pin as an output held high
func NewHWHandler(bus *machine.I2C, intPin machine.Pin, resetPin machine.Pin) (*HWHandler, error) {
	handler := &HWHandler{
		bus:      bus,
		IntPin:   intPin,
		ResetPin: resetPin,
	}
	err := bus.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	if err != nil {
		return nil, err
	}
	intPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	resetPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	resetPin.High()
	return handler, nil
}

func (obj *HWHandler) Tx(addr uint16, w, r []byte) error {
	return obj.bus.Tx(addr, w, r)
}

func (obj *HWHandler) IsLow() (bool, error) {
	return !obj.IntPin.Get(), nil
}

func (obj *HWHandler) SetLow() error {
	obj.ResetPin.Low()
	return nil
}

func (obj *HWHandler) SetHigh() error {
	obj.ResetPin.High()
	return nil
}

func (obj *HWHandler) Sleep(d time.Duration) {
	time.Sleep(d)
}
