package cst816s

import "github.com/hwbits/go-cst816s/pkg/hal"

// DefaultAddress is the fixed 7 bit I2C address of the controller
const DefaultAddress uint16 = 0x15

const (
	GESTURE_ID        hal.RegAddress = 0x01 // gesture classified for the last touch
	FINGER_NUM        hal.RegAddress = 0x02 // number of fingers on the panel, zero or one
	XPOS_H            hal.RegAddress = 0x03 // high nibble of the 12 bit x position
	XPOS_L            hal.RegAddress = 0x04 // low byte of the 12 bit x position
	YPOS_H            hal.RegAddress = 0x05 // high nibble of the 12 bit y position
	YPOS_L            hal.RegAddress = 0x06 // low byte of the 12 bit y position
	CHIP_ID           hal.RegAddress = 0xA7 // chip identifier
	PROJ_ID           hal.RegAddress = 0xA8 // project identifier
	FW_VERSION        hal.RegAddress = 0xA9 // firmware version
	BPC0_H            hal.RegAddress = 0xB0 // high byte of calibration channel 0
	BPC0_L            hal.RegAddress = 0xB1 // low byte of calibration channel 0
	BPC1_H            hal.RegAddress = 0xB2 // high byte of calibration channel 1
	BPC1_L            hal.RegAddress = 0xB3 // low byte of calibration channel 1
	DEEP_SLEEP        hal.RegAddress = 0xE5 // deep sleep command, write 0x03 to enter
	MOTION_MASK       hal.RegAddress = 0xEC // motion action enable flags
	IRQ_PULSE_WIDTH   hal.RegAddress = 0xED // interrupt low pulse width, unit 0.1ms
	NOR_SCAN_PER      hal.RegAddress = 0xEE // normal scan period, unit 10ms
	MOTION_SL_ANGLE   hal.RegAddress = 0xEF // gesture sliding area angle, tan(angle) * 10
	LP_SCAN_RAW1_H    hal.RegAddress = 0xF0 // low power scan channel 1 reference, high byte
	LP_SCAN_RAW1_L    hal.RegAddress = 0xF1 // low power scan channel 1 reference, low byte
	LP_SCAN_RAW2_H    hal.RegAddress = 0xF2 // low power scan channel 2 reference, high byte
	LP_SCAN_RAW2_L    hal.RegAddress = 0xF3 // low power scan channel 2 reference, low byte
	LP_AUTO_WAKE_TIME hal.RegAddress = 0xF4 // low power recalibration period, unit 1 minute
	LP_SCAN_TH        hal.RegAddress = 0xF5 // low power scan wake threshold, smaller is more sensitive
	LP_SCAN_WIN       hal.RegAddress = 0xF6 // low power scan range, greater is more sensitive
	LP_SCAN_FREQ      hal.RegAddress = 0xF7 // low power scan frequency, smaller is more sensitive
	LP_SCAN_IDAC      hal.RegAddress = 0xF8 // low power scan current, smaller is more sensitive
	AUTO_SLEEP_TIME   hal.RegAddress = 0xF9 // seconds without touch before entering low power mode
	IRQ_CTL           hal.RegAddress = 0xFA // interrupt pulse trigger flags
	AUTO_RESET        hal.RegAddress = 0xFB // seconds of touch without gesture before reset, 0 disables
	LONG_PRESS_TIME   hal.RegAddress = 0xFC // seconds of long press before reset, 0 disables
	IO_CTL            hal.RegAddress = 0xFD // pin level, drive mode and soft reset flags
	DIS_AUTO_SLEEP    hal.RegAddress = 0xFE // non zero disables automatic low power entry
)

// registerSet is the full controller register map. The 12 bit positions and
// the calibration channels appear twice: once as byte halves and once as 16
// bit composites that share the halves addresses and are read in a single
// two byte transaction.
type registerSet []hal.Descriptor

func newRegisterSet() registerSet {
	return registerSet{
		{Name: "GestureId", Address: GESTURE_ID, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly, Enum: gestureEnum()},
		{Name: "FingerNum", Address: FINGER_NUM, Bits: 8, ValueBits: 1, Access: hal.AccessReadOnly},
		{Name: "XposH", Address: XPOS_H, Bits: 8, ValueBits: 4, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "XposL", Address: XPOS_L, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "Xpos", Address: XPOS_H, Bits: 16, ValueBits: 12, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "YposH", Address: YPOS_H, Bits: 8, ValueBits: 4, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "YposL", Address: YPOS_L, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "Ypos", Address: YPOS_H, Bits: 16, ValueBits: 12, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "ChipId", Address: CHIP_ID, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly},
		{Name: "ProjId", Address: PROJ_ID, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly},
		{Name: "FwVersion", Address: FW_VERSION, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly},
		{Name: "BPC0H", Address: BPC0_H, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "BPC0L", Address: BPC0_L, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "BPC0", Address: BPC0_H, Bits: 16, ValueBits: 16, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "BPC1H", Address: BPC1_H, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "BPC1L", Address: BPC1_L, Bits: 8, ValueBits: 8, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "BPC1", Address: BPC1_H, Bits: 16, ValueBits: 16, Access: hal.AccessReadOnly, Overlaps: true},
		{Name: "DeepSleep", Address: DEEP_SLEEP, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite, Reset: 0x03, Source: hal.SourceCommunity},
		{Name: "MotionMask", Address: MOTION_MASK, Bits: 3, Access: hal.AccessReadWrite, Fields: []hal.Field{
			{Name: "EnDClick", Offset: 0, Width: 1},
			{Name: "EnConUD", Offset: 1, Width: 1},
			{Name: "EnConLR", Offset: 2, Width: 1},
		}},
		{Name: "IrqPulseWidth", Address: IRQ_PULSE_WIDTH, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite, Reset: 10},
		{Name: "NorScanPer", Address: NOR_SCAN_PER, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite, Reset: 1},
		{Name: "MotionSlAngle", Address: MOTION_SL_ANGLE, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite},
		{Name: "LpScanRaw1H", Address: LP_SCAN_RAW1_H, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite},
		{Name: "LpScanRaw1L", Address: LP_SCAN_RAW1_L, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite},
		{Name: "LpScanRaw2H", Address: LP_SCAN_RAW2_H, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite},
		{Name: "LpScanRaw2L", Address: LP_SCAN_RAW2_L, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite},
		{Name: "LpAutoWakeTime", Address: LP_AUTO_WAKE_TIME, Bits: 3, ValueBits: 3, Access: hal.AccessReadWrite, Reset: 5},
		{Name: "LpScanTH", Address: LP_SCAN_TH, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite, Reset: 48},
		{Name: "LpScanWin", Address: LP_SCAN_WIN, Bits: 2, ValueBits: 2, Access: hal.AccessReadWrite, Reset: 3},
		{Name: "LpScanFreq", Address: LP_SCAN_FREQ, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite, Reset: 7},
		{Name: "LpScanIdac", Address: LP_SCAN_IDAC, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite},
		{Name: "AutoSleepTime", Address: AUTO_SLEEP_TIME, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite, Reset: 2},
		{Name: "IrqCtl", Address: IRQ_CTL, Bits: 8, Access: hal.AccessReadWrite, Fields: []hal.Field{
			{Name: "OnceWLP", Offset: 0, Width: 1},
			{Name: "EnMotion", Offset: 4, Width: 1},
			{Name: "EnChange", Offset: 5, Width: 1},
			{Name: "EnTouch", Offset: 6, Width: 1},
			{Name: "EnTest", Offset: 7, Width: 1},
		}},
		{Name: "AutoReset", Address: AUTO_RESET, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite},
		{Name: "LongPressTime", Address: LONG_PRESS_TIME, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite, Reset: 10},
		{Name: "IOCtl", Address: IO_CTL, Bits: 3, Access: hal.AccessReadWrite, Fields: []hal.Field{
			{Name: "En1v8", Offset: 0, Width: 1},
			{Name: "IIC_OD", Offset: 1, Width: 1},
			{Name: "SOFT_RST", Offset: 2, Width: 1},
		}},
		{Name: "DisAutoSleep", Address: DIS_AUTO_SLEEP, Bits: 8, ValueBits: 8, Access: hal.AccessReadWrite},
	}
}

// physical returns the single byte register at the given address
func (obj registerSet) physical(address hal.RegAddress) (hal.Descriptor, bool) {
	for _, d := range obj {
		if d.Address == address && d.Size() == 1 {
			return d, true
		}
	}
	return hal.Descriptor{}, false
}

// composite returns the two byte virtual register anchored at the address of
// its high half
func (obj registerSet) composite(address hal.RegAddress) (hal.Descriptor, bool) {
	for _, d := range obj {
		if d.Address == address && d.Size() == 2 {
			return d, true
		}
	}
	return hal.Descriptor{}, false
}

// Registers returns the controller register map as descriptor metadata, for
// tooling that dumps or documents the map. The returned slice is a copy.
func Registers() []hal.Descriptor {
	set := newRegisterSet()
	out := make([]hal.Descriptor, len(set))
	copy(out, set)
	return out
}
