// Package sim provides an in memory CST816S stand in. It implements the
// same hardware handler contract as the platform packages, so the driver,
// its tests and the CLI can run against it without a panel attached.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/mazen160/go-random"

	"github.com/hwbits/go-cst816s/pkg/cst816s"
	"github.com/hwbits/go-cst816s/pkg/hal"
)

// Panel emulates the controller register file and both control lines.
// Register writes land in the file, register reads honor the address auto
// increment, so multi byte reads see adjacent registers exactly like the
// chip serves them. A reset pulse reloads the documented reset values.
type Panel struct {
	mu        sync.Mutex
	address   uint16
	file      [256]uint8
	intLow    bool
	resetLow  bool
	txCount   int
	journal   []string
	failSkip  int
	failCount int
	failErr   error
}

// NewPanel creates a powered up panel with reset values loaded and a CST816S
// chip identity
func NewPanel() *Panel {
	obj := &Panel{address: cst816s.DefaultAddress}
	obj.loadResets()
	obj.file[uint8(cst816s.CHIP_ID)] = 0xB4
	obj.file[uint8(cst816s.FW_VERSION)] = 0x01
	return obj
}

// loadResets seeds the register file with the reset value of every mapped
// byte register, callers hold the lock or own the panel exclusively
func (obj *Panel) loadResets() {
	for i := range obj.file {
		obj.file[i] = 0
	}
	for _, descriptor := range cst816s.Registers() {
		if descriptor.Size() != 1 {
			continue
		}
		obj.file[uint8(descriptor.Address)] = uint8(descriptor.Reset)
	}
}

// Tx implements hal.Bus. The first written byte selects the register, the
// rest are stored, then the read buffer is served starting from the selected
// register.
func (obj *Panel) Tx(addr uint16, w, r []byte) error {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.txCount++
	if obj.failSkip > 0 {
		obj.failSkip--
	} else if obj.failCount > 0 {
		obj.failCount--
		return obj.failErr
	}
	if addr != obj.address {
		return fmt.Errorf("no device at address 0x%02X", addr)
	}
	if len(w) == 0 {
		return fmt.Errorf("transaction carries no register address")
	}
	reg := int(w[0])
	for i, b := range w[1:] {
		obj.file[(reg+i)%len(obj.file)] = b
	}
	for i := range r {
		r[i] = obj.file[(reg+i)%len(obj.file)]
	}
	return nil
}

// IsLow implements hal.IntPin
func (obj *Panel) IsLow() (bool, error) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.intLow, nil
}

// SetLow implements hal.ResetPin
func (obj *Panel) SetLow() error {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.resetLow = true
	obj.journal = append(obj.journal, "reset low")
	return nil
}

// SetHigh implements hal.ResetPin. Releasing the line out of a reset pulse
// reboots the emulated chip: reset values come back and any pending touch is
// gone.
func (obj *Panel) SetHigh() error {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	if obj.resetLow {
		obj.loadResets()
		obj.file[uint8(cst816s.CHIP_ID)] = 0xB4
		obj.file[uint8(cst816s.FW_VERSION)] = 0x01
		obj.intLow = false
	}
	obj.resetLow = false
	obj.journal = append(obj.journal, "reset high")
	return nil
}

// Sleep implements hal.Delay, it only records the request instead of
// actually sleeping so tests stay fast
func (obj *Panel) Sleep(d time.Duration) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.journal = append(obj.journal, "sleep "+d.String())
}

// WaitForAssert implements hal.EventWaiter by polling the emulated line
func (obj *Panel) WaitForAssert(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		obj.mu.Lock()
		low := obj.intLow
		obj.mu.Unlock()
		if low {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("failed to wait for INT assert, timeout occurred")
		}
		time.Sleep(time.Millisecond)
	}
}

// Touch presents a single finger at the given position with a classified
// gesture and asserts the interrupt line
func (obj *Panel) Touch(x, y uint16, gesture cst816s.Gesture) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.file[uint8(cst816s.GESTURE_ID)] = uint8(gesture)
	obj.file[uint8(cst816s.FINGER_NUM)] = 1
	obj.file[uint8(cst816s.XPOS_H)] = uint8(x >> 8 & 0x0F)
	obj.file[uint8(cst816s.XPOS_L)] = uint8(x)
	obj.file[uint8(cst816s.YPOS_H)] = uint8(y >> 8 & 0x0F)
	obj.file[uint8(cst816s.YPOS_L)] = uint8(y)
	obj.intLow = true
}

// Release lifts the finger and deasserts the interrupt line
func (obj *Panel) Release() {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.file[uint8(cst816s.GESTURE_ID)] = uint8(cst816s.GESTURE_NONE)
	obj.file[uint8(cst816s.FINGER_NUM)] = 0
	obj.intLow = false
}

// SetInterrupt drives the interrupt line directly, for scenarios where the
// line state and the register content are controlled separately
func (obj *Panel) SetInterrupt(asserted bool) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.intLow = asserted
}

// SetRegister pokes a raw register byte
func (obj *Panel) SetRegister(address hal.RegAddress, value uint8) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.file[uint8(address)] = value
}

// Register peeks a raw register byte
func (obj *Panel) Register(address hal.RegAddress) uint8 {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.file[uint8(address)]
}

// FailTransactions makes count upcoming bus transactions fail with err,
// after letting skip transactions through first
func (obj *Panel) FailTransactions(skip, count int, err error) {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	obj.failSkip = skip
	obj.failCount = count
	obj.failErr = err
}

// Transactions returns how many bus transactions the panel served,
// including failed ones
func (obj *Panel) Transactions() int {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.txCount
}

// Journal returns the recorded pin and delay operations in order
func (obj *Panel) Journal() []string {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	out := make([]string, len(obj.journal))
	copy(out, obj.journal)
	return out
}

// Autoplay generates random touches until stop is closed, it drives demo
// sessions when no hardware is attached
func (obj *Panel) Autoplay(interval time.Duration, stop <-chan struct{}) {
	gestures := []cst816s.Gesture{
		cst816s.GESTURE_NONE,
		cst816s.GESTURE_SLIDE_UP,
		cst816s.GESTURE_SLIDE_DOWN,
		cst816s.GESTURE_SLIDE_LEFT,
		cst816s.GESTURE_SLIDE_RIGHT,
		cst816s.GESTURE_SINGLE_CLICK,
		cst816s.GESTURE_DOUBLE_CLICK,
		cst816s.GESTURE_LONG_PRESS,
	}
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
			x, err := random.IntRange(0, 240)
			if err != nil {
				continue
			}
			y, err := random.IntRange(0, 240)
			if err != nil {
				continue
			}
			pick, err := random.IntRange(0, len(gestures))
			if err != nil {
				continue
			}
			obj.Touch(uint16(x), uint16(y), gestures[pick])
			time.Sleep(interval / 2)
			obj.Release()
		}
	}()
}
