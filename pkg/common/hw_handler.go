package common

import (
	"fmt"
	"sync"
	"time"

	"github.com/mazen160/go-random"
	"github.com/rs/zerolog"
	"github.com/warthog618/gpiod"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

type Option func(*HWHandler)

// WithLogger attaches a logger for bus and pin diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(obj *HWHandler) {
		obj.log = logger
	}
}

// HWHandler drives the touch controller on Linux boards through an I2C
// character device and two GPIO lines. It implements hal.HWHandler and
// hal.EventWaiter, the interrupt line edge is delivered by the kernel so
// waiters block instead of polling.
type HWHandler struct {
	bus       i2c.BusCloser         // I2C bus that carries the register transactions
	chip      *gpiod.Chip           // GPIO chip both lines live on
	IntLine   *gpiod.Line           // INT GPIO pin, input, chip pulls it low on events
	ResetLine *gpiod.Line           // RST GPIO pin, output, low holds the chip in reset
	muWaiters sync.Mutex            // map protection mutex
	waiters   map[string]chan error // holds channels that wait for a falling INT edge
	log       zerolog.Logger
}

// NewHWHandler opens the I2C bus and requests both GPIO lines. busName is a
// periph bus reference like "/dev/i2c-1" or "1", gpioChip is the gpiod chip
// name like "gpiochip0", the pins are line offsets on that chip. The reset
// line starts high, the chip is left running.
func NewHWHandler(busName string, gpioChip string, intPin int, resetPin int, opts ...Option) (*HWHandler, error) {
	handler := &HWHandler{
		waiters: make(map[string]chan error),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(handler)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}
	handler.bus = bus

	c, err := gpiod.NewChip(gpioChip, gpiod.WithConsumer("cst816s"))
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to create GPIO chip: %w", err)
	}
	handler.chip = c

	handler.IntLine, err = c.RequestLine(intPin, gpiod.WithPullUp,
		gpiod.WithEventHandler(handler.onIntFallEvent), gpiod.WithFallingEdge)
	if err != nil {
		c.Close()
		bus.Close()
		return nil, fmt.Errorf("failed to request INT GPIO line: %w", err)
	}

	handler.ResetLine, err = c.RequestLine(resetPin, gpiod.AsOutput(1))
	if err != nil {
		handler.IntLine.Close()
		c.Close()
		bus.Close()
		return nil, fmt.Errorf("failed to request RST GPIO line: %w", err)
	}
	return handler, nil
}

func (obj *HWHandler) Close() (err error) {
	err = obj.IntLine.Close()
	if err != nil {
		return fmt.Errorf("failed to close INT line: %w", err)
	}
	err = obj.ResetLine.Close()
	if err != nil {
		return fmt.Errorf("failed to close RST line: %w", err)
	}
	err = obj.chip.Close()
	if err != nil {
		return fmt.Errorf("failed to close GPIO chip: %w", err)
	}
	err = obj.bus.Close()
	if err != nil {
		return fmt.Errorf("failed to close I2C bus: %w", err)
	}
	return nil
}

// Tx runs one write then read I2C transaction against the device address
func (obj *HWHandler) Tx(addr uint16, w, r []byte) error {
	if err := obj.bus.Tx(addr, w, r); err != nil {
		return err
	}
	obj.log.Debug().Uint16("addr", addr).Hex("w", w).Hex("r", r).Msg("i2c transaction")
	return nil
}

// IsLow reports whether the chip is asserting the interrupt line
func (obj *HWHandler) IsLow() (bool, error) {
	val, err := obj.IntLine.Value()
	if err != nil {
		return false, fmt.Errorf("failed to get INT line value: %w", err)
	}
	return val == 0, nil
}

func (obj *HWHandler) SetLow() error {
	if err := obj.ResetLine.SetValue(0); err != nil {
		return fmt.Errorf("failed to set RST line low: %w", err)
	}
	return nil
}

func (obj *HWHandler) SetHigh() error {
	if err := obj.ResetLine.SetValue(1); err != nil {
		return fmt.Errorf("failed to set RST line high: %w", err)
	}
	return nil
}

func (obj *HWHandler) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (obj *HWHandler) onIntFallEvent(evt gpiod.LineEvent) {
	// the chip pulses the line low for every pending event, wake everyone
	// that blocked on it
	obj.log.Trace().Msg("INT edge")
	obj.notifyWaiters()
}

func (obj *HWHandler) notifyWaiters() {
	obj.muWaiters.Lock()
	defer obj.muWaiters.Unlock()
	for id, ch := range obj.waiters {
		ch <- nil
		close(ch)
		delete(obj.waiters, id)
	}
}

// WaitForAssert blocks until the interrupt line is asserted or timeout
// expires. A line that is already low returns immediately, otherwise the
// caller sleeps until the next falling edge wakes it.
func (obj *HWHandler) WaitForAssert(timeout time.Duration) error {
	low, err := obj.IsLow()
	if err != nil {
		return err
	}
	if low {
		return nil
	}

	ch := make(chan error, 1)
	id, err := random.String(16)
	if err != nil {
		return fmt.Errorf("failed to generate random id: %w", err)
	}
	obj.muWaiters.Lock()
	obj.waiters[id] = ch
	obj.muWaiters.Unlock()
	select {
	case <-time.After(timeout):
		obj.muWaiters.Lock()
		delete(obj.waiters, id)
		obj.muWaiters.Unlock()
		return fmt.Errorf("failed to wait for INT assert, timeout occurred")
	case err := <-ch:
		return err
	}
}
