package cst816s

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hwbits/go-cst816s/pkg/hal"
)

const (
	resetHoldTime    = 20 * time.Millisecond
	resetSettleTime  = 50 * time.Millisecond
	deepSleepCommand = 0x03
	waitPollInterval = time.Millisecond
)

// Point is a touch position in panel coordinates, 12 bits per axis
type Point struct {
	X uint16
	Y uint16
}

// TouchEvent is one successfully sampled touch
type TouchEvent struct {
	Point   Point
	Gesture Gesture
}

// ExtendedTouchEvent carries the optional sample fields on top of the
// minimal event
type ExtendedTouchEvent struct {
	TouchEvent
	Fingers uint8
	BPC0    uint16
	BPC1    uint16
}

type Option func(*Module)

// WithAddress overrides the I2C device address, the chip itself is fixed at
// DefaultAddress but bus multiplexers may present it elsewhere
func WithAddress(address uint16) Option {
	return func(obj *Module) {
		obj.address = address
	}
}

// WithLogger attaches a logger for bus and lifecycle diagnostics, logging is
// disabled without it
func WithLogger(logger zerolog.Logger) Option {
	return func(obj *Module) {
		obj.log = logger
	}
}

// Module is the driver facade for the CST816S touch controller. It holds no
// cached register state, every accessor turns into bus traffic. Methods must
// be called from a single goroutine.
type Module struct {
	hw      hal.HWHandler
	address uint16
	regs    registerSet
	log     zerolog.Logger
	scratch [3]byte
}

// NewModule creates the driver on top of a platform hardware handler. The
// constructor performs no bus traffic, the controller may still be in reset
// when it runs.
func NewModule(hw hal.HWHandler, opts ...Option) *Module {
	obj := &Module{
		hw:      hw,
		address: DefaultAddress,
		regs:    newRegisterSet(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(obj)
	}
	return obj
}

// readRegister runs the single bus transaction for one descriptor and
// returns the masked value. Two byte registers arrive big endian, high half
// first, matching the address order on the wire.
func (obj *Module) readRegister(descriptor hal.Descriptor) (uint16, error) {
	size := descriptor.Size()
	obj.scratch[0] = byte(descriptor.Address)
	buf := obj.scratch[1 : 1+size]
	if err := obj.hw.Tx(obj.address, obj.scratch[:1], buf); err != nil {
		return 0, fmt.Errorf("failed to read %s register: %w: %w", descriptor.Name, hal.ErrTransport, err)
	}
	var raw uint16
	if size == 2 {
		raw = binary.BigEndian.Uint16(buf)
	} else {
		raw = uint16(buf[0])
	}
	return raw & descriptor.ValueMask(), nil
}

// writeRegister validates the value against the descriptor and writes it in
// one transaction, register address followed by the data byte
func (obj *Module) writeRegister(descriptor hal.Descriptor, value uint16) error {
	if descriptor.Access != hal.AccessReadWrite {
		return fmt.Errorf("failed to write %s register, it is read only: %w", descriptor.Name, hal.ErrValidation)
	}
	if value&^descriptor.ValueMask() != 0 {
		return fmt.Errorf("failed to write %s register, value 0x%02X does not fit %d bits: %w",
			descriptor.Name, value, descriptor.Bits, hal.ErrValidation)
	}
	obj.scratch[0] = byte(descriptor.Address)
	obj.scratch[1] = byte(value)
	if err := obj.hw.Tx(obj.address, obj.scratch[:2], nil); err != nil {
		return fmt.Errorf("failed to write %s register: %w: %w", descriptor.Name, hal.ErrTransport, err)
	}
	obj.log.Debug().Str("register", descriptor.Name).Uint16("value", value).Msg("register written")
	return nil
}

func (obj *Module) readComposite(address hal.RegAddress) (uint16, error) {
	descriptor, ok := obj.regs.composite(address)
	if !ok {
		return 0, fmt.Errorf("failed to read composite register at 0x%02X, none is mapped there: %w",
			uint8(address), hal.ErrValidation)
	}
	return obj.readRegister(descriptor)
}

// ReadRegister reads a single byte register by address and returns its
// masked value. The composite registers are not reachable here, use Position
// and the calibration accessors for those.
func (obj *Module) ReadRegister(address hal.RegAddress) (uint16, error) {
	descriptor, ok := obj.regs.physical(address)
	if !ok {
		return 0, fmt.Errorf("failed to read register 0x%02X, it is not mapped: %w", uint8(address), hal.ErrValidation)
	}
	return obj.readRegister(descriptor)
}

// WriteRegister writes a single byte register by address. Read only
// registers and values wider than the register are rejected before any bus
// traffic.
func (obj *Module) WriteRegister(address hal.RegAddress, value uint16) error {
	descriptor, ok := obj.regs.physical(address)
	if !ok {
		return fmt.Errorf("failed to write register 0x%02X, it is not mapped: %w", uint8(address), hal.ErrValidation)
	}
	return obj.writeRegister(descriptor, value)
}

// ChipID reads the chip identifier register directly, without the interrupt
// gate that ReadChipID applies
func (obj *Module) ChipID() (uint8, error) {
	value, err := obj.ReadRegister(CHIP_ID)
	return uint8(value), err
}

// ProjectID reads the project identifier register
func (obj *Module) ProjectID() (uint8, error) {
	value, err := obj.ReadRegister(PROJ_ID)
	return uint8(value), err
}

// FirmwareVersion reads the firmware version register
func (obj *Module) FirmwareVersion() (uint8, error) {
	value, err := obj.ReadRegister(FW_VERSION)
	return uint8(value), err
}

// FingerCount reads the number of fingers on the panel, zero or one
func (obj *Module) FingerCount() (uint8, error) {
	value, err := obj.ReadRegister(FINGER_NUM)
	return uint8(value), err
}

// Gesture reads and decodes the gesture register. An unknown code is a
// decode error, not a default gesture.
func (obj *Module) Gesture() (Gesture, error) {
	value, err := obj.ReadRegister(GESTURE_ID)
	if err != nil {
		return 0, err
	}
	return decodeGesture(uint8(value))
}

// Position reads the touch coordinates. Each axis is one two byte composite
// read, the nibble and byte halves are never stitched together on the host.
func (obj *Module) Position() (Point, error) {
	x, err := obj.readComposite(XPOS_H)
	if err != nil {
		return Point{}, err
	}
	y, err := obj.readComposite(YPOS_H)
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

// BPC0 reads calibration channel 0 as one two byte composite read
func (obj *Module) BPC0() (uint16, error) {
	return obj.readComposite(BPC0_H)
}

// BPC1 reads calibration channel 1 as one two byte composite read
func (obj *Module) BPC1() (uint16, error) {
	return obj.readComposite(BPC1_H)
}

// Event samples one touch. It first checks the interrupt line and returns
// immediately when no event is pending, the chip only has valid sample data
// while it asserts the line. Reads run per field, x position, y position,
// gesture. Any failed check, read or decode drops the whole sample and
// reports no event, a partially read touch is never surfaced.
func (obj *Module) Event() (TouchEvent, bool) {
	low, err := obj.hw.IsLow()
	if err != nil || !low {
		return TouchEvent{}, false
	}
	point, err := obj.Position()
	if err != nil {
		obj.log.Debug().Err(err).Msg("touch sample dropped")
		return TouchEvent{}, false
	}
	gesture, err := obj.Gesture()
	if err != nil {
		obj.log.Debug().Err(err).Msg("touch sample dropped")
		return TouchEvent{}, false
	}
	return TouchEvent{Point: point, Gesture: gesture}, true
}

// EventExtended samples one touch like Event and additionally reads the
// finger count and both calibration channels. The all or nothing rule
// covers the extra reads too.
func (obj *Module) EventExtended() (ExtendedTouchEvent, bool) {
	event, ok := obj.Event()
	if !ok {
		return ExtendedTouchEvent{}, false
	}
	fingers, err := obj.FingerCount()
	if err != nil {
		obj.log.Debug().Err(err).Msg("touch sample dropped")
		return ExtendedTouchEvent{}, false
	}
	bpc0, err := obj.BPC0()
	if err != nil {
		obj.log.Debug().Err(err).Msg("touch sample dropped")
		return ExtendedTouchEvent{}, false
	}
	bpc1, err := obj.BPC1()
	if err != nil {
		obj.log.Debug().Err(err).Msg("touch sample dropped")
		return ExtendedTouchEvent{}, false
	}
	return ExtendedTouchEvent{TouchEvent: event, Fingers: fingers, BPC0: bpc0, BPC1: bpc1}, true
}

// WaitForEvent blocks until the interrupt line signals a pending touch, then
// performs one sampling attempt. Handlers that implement hal.EventWaiter are
// woken by the line edge, others are polled. Returns false when timeout
// expires or the sample is dropped.
func (obj *Module) WaitForEvent(timeout time.Duration) (TouchEvent, bool) {
	if waiter, ok := obj.hw.(hal.EventWaiter); ok {
		if err := waiter.WaitForAssert(timeout); err != nil {
			return TouchEvent{}, false
		}
		return obj.Event()
	}
	deadline := time.Now().Add(timeout)
	for {
		if event, ok := obj.Event(); ok {
			return event, true
		}
		if time.Now().After(deadline) {
			return TouchEvent{}, false
		}
		obj.hw.Sleep(waitPollInterval)
	}
}

// ReadChipID reads the chip identifier under the same interrupt gate as
// touch sampling. The chip keeps its bus interface parked unless it has
// something to report, reading the id while the line is idle returns junk
// on some firmware revisions. Returns false when the line is not asserted
// or the read fails.
func (obj *Module) ReadChipID() (uint8, bool) {
	low, err := obj.hw.IsLow()
	if err != nil || !low {
		return 0, false
	}
	id, err := obj.ChipID()
	if err != nil {
		return 0, false
	}
	return id, true
}

// Reset pulses the reset line and waits for the controller to boot. The
// chip needs the line held low for 20ms and is responsive 50ms after
// release. All volatile configuration is lost, callers reapply it through
// Configure or a ConfigBuilder.
func (obj *Module) Reset() error {
	if err := obj.hw.SetLow(); err != nil {
		return fmt.Errorf("failed to pull reset line low: %w: %w", hal.ErrTransport, err)
	}
	obj.hw.Sleep(resetHoldTime)
	if err := obj.hw.SetHigh(); err != nil {
		return fmt.Errorf("failed to release reset line: %w: %w", hal.ErrTransport, err)
	}
	obj.hw.Sleep(resetSettleTime)
	obj.log.Debug().Msg("touch controller reset done")
	return nil
}

// SetPulseWidth sets the interrupt low pulse width. The value is checked
// against the hardware range before any bus traffic.
func (obj *Module) SetPulseWidth(width PulseWidth) error {
	if _, err := NewPulseWidth(uint8(width)); err != nil {
		return err
	}
	return obj.WriteRegister(IRQ_PULSE_WIDTH, uint16(width))
}

// PulseWidth reads the interrupt low pulse width back from the chip
func (obj *Module) PulseWidth() (PulseWidth, error) {
	value, err := obj.ReadRegister(IRQ_PULSE_WIDTH)
	if err != nil {
		return 0, err
	}
	return NewPulseWidth(uint8(value))
}

// DeepSleep sends the community documented deep sleep command. The register
// is not in the vendor datasheet, behavior may differ between firmware
// revisions. A hardware reset wakes the controller up again.
func (obj *Module) DeepSleep() error {
	if err := obj.WriteRegister(DEEP_SLEEP, deepSleepCommand); err != nil {
		return err
	}
	obj.log.Debug().Msg("touch controller sent to deep sleep")
	return nil
}
