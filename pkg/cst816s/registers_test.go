package cst816s_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwbits/go-cst816s/pkg/cst816s"
	"github.com/hwbits/go-cst816s/pkg/hal"
)

func registerByName(t *testing.T, name string) hal.Descriptor {
	t.Helper()
	for _, descriptor := range cst816s.Registers() {
		if descriptor.Name == name {
			return descriptor
		}
	}
	t.Fatalf("register %s is not in the map", name)
	return hal.Descriptor{}
}

func TestRegisterMapIsValid(t *testing.T) {
	for _, descriptor := range cst816s.Registers() {
		require.NoError(t, descriptor.Validate(), "register %s", descriptor.Name)
	}
}

func TestRegisterMapContract(t *testing.T) {
	tests := []struct {
		name    string
		address hal.RegAddress
		bits    uint8
		access  hal.Access
		reset   uint16
	}{
		{name: "GestureId", address: 0x01, bits: 8, access: hal.AccessReadOnly},
		{name: "FingerNum", address: 0x02, bits: 8, access: hal.AccessReadOnly},
		{name: "XposH", address: 0x03, bits: 8, access: hal.AccessReadOnly},
		{name: "XposL", address: 0x04, bits: 8, access: hal.AccessReadOnly},
		{name: "YposH", address: 0x05, bits: 8, access: hal.AccessReadOnly},
		{name: "YposL", address: 0x06, bits: 8, access: hal.AccessReadOnly},
		{name: "ChipId", address: 0xA7, bits: 8, access: hal.AccessReadOnly},
		{name: "ProjId", address: 0xA8, bits: 8, access: hal.AccessReadOnly},
		{name: "FwVersion", address: 0xA9, bits: 8, access: hal.AccessReadOnly},
		{name: "BPC0H", address: 0xB0, bits: 8, access: hal.AccessReadOnly},
		{name: "BPC0L", address: 0xB1, bits: 8, access: hal.AccessReadOnly},
		{name: "BPC1H", address: 0xB2, bits: 8, access: hal.AccessReadOnly},
		{name: "BPC1L", address: 0xB3, bits: 8, access: hal.AccessReadOnly},
		{name: "DeepSleep", address: 0xE5, bits: 8, access: hal.AccessReadWrite, reset: 0x03},
		{name: "MotionMask", address: 0xEC, bits: 3, access: hal.AccessReadWrite},
		{name: "IrqPulseWidth", address: 0xED, bits: 8, access: hal.AccessReadWrite, reset: 10},
		{name: "NorScanPer", address: 0xEE, bits: 8, access: hal.AccessReadWrite, reset: 1},
		{name: "MotionSlAngle", address: 0xEF, bits: 8, access: hal.AccessReadWrite},
		{name: "LpScanRaw1H", address: 0xF0, bits: 8, access: hal.AccessReadWrite},
		{name: "LpScanRaw1L", address: 0xF1, bits: 8, access: hal.AccessReadWrite},
		{name: "LpScanRaw2H", address: 0xF2, bits: 8, access: hal.AccessReadWrite},
		{name: "LpScanRaw2L", address: 0xF3, bits: 8, access: hal.AccessReadWrite},
		{name: "LpAutoWakeTime", address: 0xF4, bits: 3, access: hal.AccessReadWrite, reset: 5},
		{name: "LpScanTH", address: 0xF5, bits: 8, access: hal.AccessReadWrite, reset: 48},
		{name: "LpScanWin", address: 0xF6, bits: 2, access: hal.AccessReadWrite, reset: 3},
		{name: "LpScanFreq", address: 0xF7, bits: 8, access: hal.AccessReadWrite, reset: 7},
		{name: "LpScanIdac", address: 0xF8, bits: 8, access: hal.AccessReadWrite},
		{name: "AutoSleepTime", address: 0xF9, bits: 8, access: hal.AccessReadWrite, reset: 2},
		{name: "IrqCtl", address: 0xFA, bits: 8, access: hal.AccessReadWrite},
		{name: "AutoReset", address: 0xFB, bits: 8, access: hal.AccessReadWrite},
		{name: "LongPressTime", address: 0xFC, bits: 8, access: hal.AccessReadWrite, reset: 10},
		{name: "IOCtl", address: 0xFD, bits: 3, access: hal.AccessReadWrite},
		{name: "DisAutoSleep", address: 0xFE, bits: 8, access: hal.AccessReadWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descriptor := registerByName(t, tt.name)
			assert.Equal(t, tt.address, descriptor.Address)
			assert.Equal(t, tt.bits, descriptor.Bits)
			assert.Equal(t, tt.access, descriptor.Access)
			assert.Equal(t, tt.reset, descriptor.Reset)
		})
	}
}

func TestCompositeRegisters(t *testing.T) {
	tests := []struct {
		name      string
		address   hal.RegAddress
		valueBits uint8
	}{
		{name: "Xpos", address: 0x03, valueBits: 12},
		{name: "Ypos", address: 0x05, valueBits: 12},
		{name: "BPC0", address: 0xB0, valueBits: 16},
		{name: "BPC1", address: 0xB2, valueBits: 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descriptor := registerByName(t, tt.name)
			assert.Equal(t, tt.address, descriptor.Address)
			assert.Equal(t, uint8(16), descriptor.Bits)
			assert.Equal(t, tt.valueBits, descriptor.ValueBits)
			assert.Equal(t, 2, descriptor.Size())
			assert.Equal(t, hal.AccessReadOnly, descriptor.Access)
			assert.True(t, descriptor.Overlaps)
		})
	}
}

func TestDeepSleepIsCommunitySourced(t *testing.T) {
	descriptor := registerByName(t, "DeepSleep")
	assert.Equal(t, hal.SourceCommunity, descriptor.Source)

	// everything else is straight from the datasheet
	for _, other := range cst816s.Registers() {
		if other.Name == "DeepSleep" {
			continue
		}
		assert.Equal(t, hal.SourceDatasheet, other.Source, "register %s", other.Name)
	}
}

func TestGestureEnumOnDescriptor(t *testing.T) {
	descriptor := registerByName(t, "GestureId")
	require.NotNil(t, descriptor.Enum)
	assert.Equal(t, "NoGesture", descriptor.Enum[0x00])
	assert.Equal(t, "SingleClick", descriptor.Enum[0x05])
	assert.Equal(t, "DoubleClick", descriptor.Enum[0x0B])
	assert.Equal(t, "LongPress", descriptor.Enum[0x0C])
	assert.Len(t, descriptor.Enum, 8)
}
