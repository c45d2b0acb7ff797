package cst816s_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwbits/go-cst816s/pkg/cst816s"
	"github.com/hwbits/go-cst816s/pkg/hal"
)

func TestConfigBuilderWritesOnlyStagedRegisters(t *testing.T) {
	module, panel := newTestModule(t)

	err := cst816s.NewConfigBuilder(module).
		DoubleClick(true).
		ContinuousUpDown(true).
		InterruptOnTouch(true).
		InterruptOnMotion(true).
		AutoSleepTime(5).
		WriteConfig()
	require.NoError(t, err)

	assert.Equal(t, uint8(0x03), panel.Register(cst816s.MOTION_MASK))
	assert.Equal(t, uint8(0x50), panel.Register(cst816s.IRQ_CTL))
	assert.Equal(t, uint8(5), panel.Register(cst816s.AUTO_SLEEP_TIME))
	// three registers staged, three writes
	assert.Equal(t, 3, panel.Transactions())
	// untouched registers keep their reset values
	assert.Equal(t, uint8(10), panel.Register(cst816s.IRQ_PULSE_WIDTH))
	assert.Equal(t, uint8(48), panel.Register(cst816s.LP_SCAN_TH))
}

func TestConfigBuilderFlagOverride(t *testing.T) {
	module, panel := newTestModule(t)

	err := cst816s.NewConfigBuilder(module).
		DoubleClick(true).
		ContinuousLeftRight(true).
		DoubleClick(false).
		WriteConfig()
	require.NoError(t, err)

	assert.Equal(t, uint8(0x04), panel.Register(cst816s.MOTION_MASK))
}

func TestConfigBuilderValidationStopsTheBatch(t *testing.T) {
	module, panel := newTestModule(t)

	err := cst816s.NewConfigBuilder(module).
		AutoSleepTime(5).
		NormalScanPeriod(40).
		WriteConfig()
	require.ErrorIs(t, err, hal.ErrValidation)
	// nothing reaches the bus, not even the valid register
	assert.Equal(t, 0, panel.Transactions())
	assert.Equal(t, uint8(2), panel.Register(cst816s.AUTO_SLEEP_TIME))
}

func TestConfigBuilderKeepsFirstError(t *testing.T) {
	module, _ := newTestModule(t)

	err := cst816s.NewConfigBuilder(module).
		NormalScanPeriod(40).
		AutoWakeTime(9).
		WriteConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan period")
}

func TestConfigBuilderRangeChecks(t *testing.T) {
	tests := []struct {
		name  string
		build func(*cst816s.ConfigBuilder) *cst816s.ConfigBuilder
	}{
		{name: "pulse width zero", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.PulseWidth(cst816s.PulseWidth(0))
		}},
		{name: "pulse width too large", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.PulseWidth(cst816s.PulseWidth(201))
		}},
		{name: "scan period zero", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.NormalScanPeriod(0)
		}},
		{name: "scan period too large", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.NormalScanPeriod(31)
		}},
		{name: "wake time zero", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.AutoWakeTime(0)
		}},
		{name: "wake time too large", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.AutoWakeTime(6)
		}},
		{name: "scan threshold zero", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.LowPowerScanThreshold(0)
		}},
		{name: "scan window too large", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.LowPowerScanWindow(4)
		}},
		{name: "scan frequency zero", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.LowPowerScanFrequency(0)
		}},
		{name: "scan current zero", build: func(b *cst816s.ConfigBuilder) *cst816s.ConfigBuilder {
			return b.LowPowerScanCurrent(0)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			module, panel := newTestModule(t)
			err := tt.build(cst816s.NewConfigBuilder(module)).WriteConfig()
			require.ErrorIs(t, err, hal.ErrValidation)
			assert.Equal(t, 0, panel.Transactions())
		})
	}
}

func TestConfigBuilderAbortsOnFirstFailedWrite(t *testing.T) {
	module, panel := newTestModule(t)

	// writes run in ascending address order, MotionMask 0xEC first, then
	// AutoSleepTime 0xF9, the first write fails and the second never runs
	panel.FailTransactions(0, 1, errors.New("bus nack"))
	err := cst816s.NewConfigBuilder(module).
		DoubleClick(true).
		AutoSleepTime(9).
		WriteConfig()
	require.ErrorIs(t, err, hal.ErrTransport)
	assert.Equal(t, 1, panel.Transactions())
	assert.Equal(t, uint8(2), panel.Register(cst816s.AUTO_SLEEP_TIME))
}

func TestConfigureAppliesDefaultProfile(t *testing.T) {
	module, panel := newTestModule(t)

	require.NoError(t, module.Configure())

	// all motion actions on
	assert.Equal(t, uint8(0x07), panel.Register(cst816s.MOTION_MASK))
	// touch, change and motion pulses plus once per long press
	assert.Equal(t, uint8(0x71), panel.Register(cst816s.IRQ_CTL))
	assert.Equal(t, uint8(10), panel.Register(cst816s.IRQ_PULSE_WIDTH))
	assert.Equal(t, uint8(48), panel.Register(cst816s.LP_SCAN_TH))
	assert.Equal(t, uint8(2), panel.Register(cst816s.AUTO_SLEEP_TIME))
}

func TestConfigBuilderIOControl(t *testing.T) {
	module, panel := newTestModule(t)

	err := cst816s.NewConfigBuilder(module).
		LevelSelect1V8(true).
		SoftReset(true).
		WriteConfig()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x05), panel.Register(cst816s.IO_CTL))

	err = cst816s.NewConfigBuilder(module).
		OpenDrainI2C(true).
		WriteConfig()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x02), panel.Register(cst816s.IO_CTL))
}
