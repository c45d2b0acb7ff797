package cst816s

import (
	"fmt"
	"sort"

	"github.com/hwbits/go-cst816s/pkg/hal"
)

// ConfigBuilder stages controller configuration and writes it in one batch.
// Only staged registers are written, in ascending address order, and a flag
// register is written as a whole: flags not set on the builder go to zero.
// Staging errors are sticky, WriteConfig reports the first one before any
// bus traffic happens.
type ConfigBuilder struct {
	chip   *Module
	staged map[hal.RegAddress]uint16
	fields map[hal.RegAddress]map[string]uint16
	err    error
}

// NewConfigBuilder creates a config builder that is used to update multiple
// parameters at once
func NewConfigBuilder(chip *Module) *ConfigBuilder {
	return &ConfigBuilder{
		chip:   chip,
		staged: make(map[hal.RegAddress]uint16),
		fields: make(map[hal.RegAddress]map[string]uint16),
	}
}

func (obj *ConfigBuilder) fail(err error) *ConfigBuilder {
	if obj.err == nil {
		obj.err = err
	}
	return obj
}

func (obj *ConfigBuilder) stage(address hal.RegAddress, value uint16) *ConfigBuilder {
	descriptor, ok := obj.chip.regs.physical(address)
	if !ok {
		return obj.fail(fmt.Errorf("failed to stage register 0x%02X, it is not mapped: %w", uint8(address), hal.ErrValidation))
	}
	if value&^descriptor.ValueMask() != 0 {
		return obj.fail(fmt.Errorf("failed to stage %s register, value 0x%02X does not fit %d bits: %w",
			descriptor.Name, value, descriptor.Bits, hal.ErrValidation))
	}
	obj.staged[address] = value
	return obj
}

func (obj *ConfigBuilder) setFlag(address hal.RegAddress, name string, enable bool) *ConfigBuilder {
	flags, ok := obj.fields[address]
	if !ok {
		flags = make(map[string]uint16)
		obj.fields[address] = flags
	}
	var value uint16
	if enable {
		value = 1
	}
	flags[name] = value
	return obj
}

// DoubleClick enables or disables double click detection
func (obj *ConfigBuilder) DoubleClick(enable bool) *ConfigBuilder {
	return obj.setFlag(MOTION_MASK, "EnDClick", enable)
}

// ContinuousUpDown enables or disables continuous up-down scrolling
func (obj *ConfigBuilder) ContinuousUpDown(enable bool) *ConfigBuilder {
	return obj.setFlag(MOTION_MASK, "EnConUD", enable)
}

// ContinuousLeftRight enables or disables continuous left-right scrolling
func (obj *ConfigBuilder) ContinuousLeftRight(enable bool) *ConfigBuilder {
	return obj.setFlag(MOTION_MASK, "EnConLR", enable)
}

// InterruptOnTouch pulses the interrupt line while a touch is detected
func (obj *ConfigBuilder) InterruptOnTouch(enable bool) *ConfigBuilder {
	return obj.setFlag(IRQ_CTL, "EnTouch", enable)
}

// InterruptOnChange pulses the interrupt line when the touch changes
func (obj *ConfigBuilder) InterruptOnChange(enable bool) *ConfigBuilder {
	return obj.setFlag(IRQ_CTL, "EnChange", enable)
}

// InterruptOnMotion pulses the interrupt line when a gesture is detected
func (obj *ConfigBuilder) InterruptOnMotion(enable bool) *ConfigBuilder {
	return obj.setFlag(IRQ_CTL, "EnMotion", enable)
}

// InterruptOncePerLongPress limits a long press to a single pulse
func (obj *ConfigBuilder) InterruptOncePerLongPress(enable bool) *ConfigBuilder {
	return obj.setFlag(IRQ_CTL, "OnceWLP", enable)
}

// InterruptTestMode makes the chip generate periodic pulses on its own
func (obj *ConfigBuilder) InterruptTestMode(enable bool) *ConfigBuilder {
	return obj.setFlag(IRQ_CTL, "EnTest", enable)
}

// LevelSelect1V8 switches the I2C and interrupt pins from VDD to 1.8V levels
func (obj *ConfigBuilder) LevelSelect1V8(enable bool) *ConfigBuilder {
	return obj.setFlag(IO_CTL, "En1v8", enable)
}

// OpenDrainI2C switches the I2C pins from pull up resistor to open drain
func (obj *ConfigBuilder) OpenDrainI2C(enable bool) *ConfigBuilder {
	return obj.setFlag(IO_CTL, "IIC_OD", enable)
}

// SoftReset lets the host reset the touch logic by pulling the interrupt
// pin down
func (obj *ConfigBuilder) SoftReset(enable bool) *ConfigBuilder {
	return obj.setFlag(IO_CTL, "SOFT_RST", enable)
}

// PulseWidth stages the interrupt low pulse width
func (obj *ConfigBuilder) PulseWidth(width PulseWidth) *ConfigBuilder {
	if _, err := NewPulseWidth(uint8(width)); err != nil {
		return obj.fail(err)
	}
	return obj.stage(IRQ_PULSE_WIDTH, uint16(width))
}

// NormalScanPeriod stages the quick scan period in 10ms units, the hardware
// accepts 1 to 30
func (obj *ConfigBuilder) NormalScanPeriod(period uint8) *ConfigBuilder {
	if period < 1 || period > 30 {
		return obj.fail(fmt.Errorf("failed to validate scan period %d, valid range is 1-30: %w", period, hal.ErrValidation))
	}
	return obj.stage(NOR_SCAN_PER, uint16(period))
}

// MotionSlidingAngle stages the sliding detection angle, tan(angle) * 10
func (obj *ConfigBuilder) MotionSlidingAngle(angle uint8) *ConfigBuilder {
	return obj.stage(MOTION_SL_ANGLE, uint16(angle))
}

// AutoWakeTime stages the low power recalibration period in minutes, the
// hardware accepts 1 to 5
func (obj *ConfigBuilder) AutoWakeTime(minutes uint8) *ConfigBuilder {
	if minutes < 1 || minutes > 5 {
		return obj.fail(fmt.Errorf("failed to validate auto wake time %d, valid range is 1-5: %w", minutes, hal.ErrValidation))
	}
	return obj.stage(LP_AUTO_WAKE_TIME, uint16(minutes))
}

// LowPowerScanThreshold stages the wake threshold, smaller is more
// sensitive, zero is not accepted
func (obj *ConfigBuilder) LowPowerScanThreshold(threshold uint8) *ConfigBuilder {
	if threshold == 0 {
		return obj.fail(fmt.Errorf("failed to validate scan threshold 0, valid range is 1-255: %w", hal.ErrValidation))
	}
	return obj.stage(LP_SCAN_TH, uint16(threshold))
}

// LowPowerScanWindow stages the scan range, 0 to 3, greater is more
// sensitive and draws more power
func (obj *ConfigBuilder) LowPowerScanWindow(window uint8) *ConfigBuilder {
	return obj.stage(LP_SCAN_WIN, uint16(window))
}

// LowPowerScanFrequency stages the scan frequency, zero is not accepted
func (obj *ConfigBuilder) LowPowerScanFrequency(frequency uint8) *ConfigBuilder {
	if frequency == 0 {
		return obj.fail(fmt.Errorf("failed to validate scan frequency 0, valid range is 1-255: %w", hal.ErrValidation))
	}
	return obj.stage(LP_SCAN_FREQ, uint16(frequency))
}

// LowPowerScanCurrent stages the scan current, zero is not accepted
func (obj *ConfigBuilder) LowPowerScanCurrent(current uint8) *ConfigBuilder {
	if current == 0 {
		return obj.fail(fmt.Errorf("failed to validate scan current 0, valid range is 1-255: %w", hal.ErrValidation))
	}
	return obj.stage(LP_SCAN_IDAC, uint16(current))
}

// AutoSleepTime stages the seconds without touch before the chip enters low
// power mode
func (obj *ConfigBuilder) AutoSleepTime(seconds uint8) *ConfigBuilder {
	return obj.stage(AUTO_SLEEP_TIME, uint16(seconds))
}

// AutoReset stages the seconds of touch without a valid gesture before the
// chip resets itself, zero disables
func (obj *ConfigBuilder) AutoReset(seconds uint8) *ConfigBuilder {
	return obj.stage(AUTO_RESET, uint16(seconds))
}

// LongPressTime stages the seconds of long press before the chip resets
// itself, zero disables
func (obj *ConfigBuilder) LongPressTime(seconds uint8) *ConfigBuilder {
	return obj.stage(LONG_PRESS_TIME, uint16(seconds))
}

// DisableAutoSleep controls automatic low power entry
func (obj *ConfigBuilder) DisableAutoSleep(disable bool) *ConfigBuilder {
	var value uint16
	if disable {
		value = 1
	}
	return obj.stage(DIS_AUTO_SLEEP, value)
}

// WriteConfig writes all staged registers to the chip. The first failed
// write aborts the batch, registers after it keep their previous values.
func (obj *ConfigBuilder) WriteConfig() error {
	if obj.err != nil {
		return obj.err
	}
	batch := make(map[hal.RegAddress]uint16, len(obj.staged)+len(obj.fields))
	for address, value := range obj.staged {
		batch[address] = value
	}
	for address, flags := range obj.fields {
		descriptor, ok := obj.chip.regs.physical(address)
		if !ok {
			return fmt.Errorf("failed to stage register 0x%02X, it is not mapped: %w", uint8(address), hal.ErrValidation)
		}
		value, err := descriptor.Pack(flags)
		if err != nil {
			return err
		}
		batch[address] = value
	}
	addresses := make([]hal.RegAddress, 0, len(batch))
	for address := range batch {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool { return addresses[i] < addresses[j] })
	for _, address := range addresses {
		descriptor, _ := obj.chip.regs.physical(address)
		if err := obj.chip.writeRegister(descriptor, batch[address]); err != nil {
			return fmt.Errorf("failed to apply configuration: %w", err)
		}
	}
	return nil
}

// Configure applies a default interactive profile: interrupt pulses for
// touch, change and motion with one pulse per long press, all motion
// actions enabled, and the documented defaults for pulse width, wake
// threshold and auto sleep so the chip is in a known state after reset.
func (obj *Module) Configure() error {
	return NewConfigBuilder(obj).
		DoubleClick(true).
		ContinuousUpDown(true).
		ContinuousLeftRight(true).
		InterruptOnTouch(true).
		InterruptOnChange(true).
		InterruptOnMotion(true).
		InterruptOncePerLongPress(true).
		PulseWidth(defaultPulseWidth).
		LowPowerScanThreshold(48).
		AutoSleepTime(2).
		WriteConfig()
}
