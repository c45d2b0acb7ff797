// Package main provides the cst816s command line tool. It talks to a
// CST816S touch controller over I2C and GPIO, or to the built in simulator,
// and exposes monitoring, configuration and register inspection commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tarm/serial"

	"github.com/hwbits/go-cst816s/pkg/common"
	"github.com/hwbits/go-cst816s/pkg/cst816s"
	"github.com/hwbits/go-cst816s/pkg/sim"
)

var (
	flagBus      string
	flagChip     string
	flagIntPin   int
	flagResetPin int
	flagAddr     uint16
	flagSim      bool
	flagVerbose  bool

	flagExtended    bool
	flagForward     string
	flagForwardBaud int

	flagDefaults    bool
	flagDoubleClick bool
	flagConUD       bool
	flagConLR       bool
	flagIrqTouch    bool
	flagIrqChange   bool
	flagIrqMotion   bool
	flagIrqOnceWLP  bool
	flagPulseWidth  uint8
	flagScanPeriod  uint8
	flagAutoSleep   uint8
	flagLongPress   uint8
	flagAutoReset   uint8
	flagLpThreshold uint8
	flagLpWindow    uint8
	flagLpFreq      uint8
	flagNoAutoSleep bool

	rootCmd = &cobra.Command{
		Use:   "cst816s",
		Short: "Tool for the CST816S capacitive touch controller",
		Long: `cst816s talks to a CST816S capacitive touch controller attached over
I2C plus an interrupt and a reset GPIO line.

It can stream decoded touch events, apply configuration batches, inspect
the chip identity and dump the register map. With --sim all commands run
against an in memory panel instead of real hardware.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			if flagVerbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
		SilenceUsage: true,
	}

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Reset and configure the chip, then stream decoded touch events",
		RunE:  runMonitor,
	}

	configureCmd = &cobra.Command{
		Use:   "configure",
		Short: "Write a configuration batch, only given flags are written",
		RunE:  runConfigure,
	}

	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Print chip identity and interrupt pulse width",
		RunE:  runInfo,
	}

	registersCmd = &cobra.Command{
		Use:   "registers",
		Short: "Dump the register map metadata",
		RunE:  runRegisters,
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Pulse the reset line and wait for the chip to boot",
		RunE:  runReset,
	}

	sleepCmd = &cobra.Command{
		Use:   "sleep",
		Short: "Send the chip into deep sleep, a reset wakes it up",
		RunE:  runSleep,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBus, "bus", "/dev/i2c-1", "I2C bus device or periph bus name")
	rootCmd.PersistentFlags().StringVar(&flagChip, "gpiochip", "gpiochip0", "GPIO chip the INT and RST lines live on")
	rootCmd.PersistentFlags().IntVar(&flagIntPin, "int-pin", 4, "INT line offset on the GPIO chip")
	rootCmd.PersistentFlags().IntVar(&flagResetPin, "reset-pin", 17, "RST line offset on the GPIO chip")
	rootCmd.PersistentFlags().Uint16Var(&flagAddr, "addr", cst816s.DefaultAddress, "I2C device address")
	rootCmd.PersistentFlags().BoolVar(&flagSim, "sim", false, "run against the in memory panel simulator")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")

	monitorCmd.Flags().BoolVar(&flagExtended, "extended", false, "sample finger count and calibration channels too")
	monitorCmd.Flags().StringVar(&flagForward, "forward", "", "serial port to forward events to as JSON lines")
	monitorCmd.Flags().IntVar(&flagForwardBaud, "forward-baud", 115200, "baud rate for the forward port")

	configureCmd.Flags().BoolVar(&flagDefaults, "defaults", false, "apply the default interactive profile first")
	configureCmd.Flags().BoolVar(&flagDoubleClick, "double-click", false, "enable double click detection")
	configureCmd.Flags().BoolVar(&flagConUD, "continuous-ud", false, "enable continuous up-down scrolling")
	configureCmd.Flags().BoolVar(&flagConLR, "continuous-lr", false, "enable continuous left-right scrolling")
	configureCmd.Flags().BoolVar(&flagIrqTouch, "irq-touch", false, "pulse the interrupt line on touch")
	configureCmd.Flags().BoolVar(&flagIrqChange, "irq-change", false, "pulse the interrupt line on touch change")
	configureCmd.Flags().BoolVar(&flagIrqMotion, "irq-motion", false, "pulse the interrupt line on gesture")
	configureCmd.Flags().BoolVar(&flagIrqOnceWLP, "irq-once-wlp", false, "one pulse per long press")
	configureCmd.Flags().Uint8Var(&flagPulseWidth, "pulse-width", 10, "interrupt pulse width in 0.1ms units, 1-200")
	configureCmd.Flags().Uint8Var(&flagScanPeriod, "scan-period", 1, "normal scan period in 10ms units, 1-30")
	configureCmd.Flags().Uint8Var(&flagAutoSleep, "auto-sleep", 2, "seconds without touch before low power mode")
	configureCmd.Flags().Uint8Var(&flagLongPress, "long-press", 10, "seconds of long press before chip reset, 0 disables")
	configureCmd.Flags().Uint8Var(&flagAutoReset, "auto-reset", 0, "seconds of gestureless touch before chip reset, 0 disables")
	configureCmd.Flags().Uint8Var(&flagLpThreshold, "lp-threshold", 48, "low power wake threshold, 1-255")
	configureCmd.Flags().Uint8Var(&flagLpWindow, "lp-window", 3, "low power scan range, 0-3")
	configureCmd.Flags().Uint8Var(&flagLpFreq, "lp-freq", 7, "low power scan frequency, 1-255")
	configureCmd.Flags().BoolVar(&flagNoAutoSleep, "no-auto-sleep", false, "disable automatic low power entry")

	rootCmd.AddCommand(monitorCmd, configureCmd, infoCmd, registersCmd, resetCmd, sleepCmd)
}

// session bundles an opened module with its backend so commands can share
// one setup path for hardware and simulator runs
type session struct {
	module *cst816s.Module
	panel  *sim.Panel
	close  func() error
}

func openSession() (*session, error) {
	if flagSim {
		panel := sim.NewPanel()
		module := cst816s.NewModule(panel, cst816s.WithLogger(log.Logger))
		return &session{module: module, panel: panel, close: func() error { return nil }}, nil
	}
	hw, err := common.NewHWHandler(flagBus, flagChip, flagIntPin, flagResetPin, common.WithLogger(log.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open hardware: %w", err)
	}
	module := cst816s.NewModule(hw, cst816s.WithAddress(flagAddr), cst816s.WithLogger(log.Logger))
	return &session{module: module, close: hw.Close}, nil
}

// eventFrame is the JSON line layout for forwarded events
type eventFrame struct {
	X       uint16 `json:"x"`
	Y       uint16 `json:"y"`
	Gesture string `json:"gesture"`
	Fingers uint8  `json:"fingers,omitempty"`
	BPC0    uint16 `json:"bpc0,omitempty"`
	BPC1    uint16 `json:"bpc1,omitempty"`
}

func runMonitor(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			log.Error().Err(err).Msg("failed to close hardware")
		}
	}()

	if err := s.module.Reset(); err != nil {
		return err
	}
	if err := s.module.Configure(); err != nil {
		return err
	}
	log.Info().Msg("touch controller configured, waiting for events")

	if s.panel != nil {
		stop := make(chan struct{})
		defer close(stop)
		s.panel.Autoplay(400*time.Millisecond, stop)
	}

	var port *serial.Port
	if flagForward != "" {
		port, err = serial.OpenPort(&serial.Config{Name: flagForward, Baud: flagForwardBaud})
		if err != nil {
			return fmt.Errorf("failed to open forward port %s: %w", flagForward, err)
		}
		defer port.Close()
	}

	signalInterruptChan := make(chan os.Signal, 1)
	signal.Notify(signalInterruptChan, os.Interrupt, syscall.SIGTERM)

	// the chip only pulses INT while it has data, poll fast right after
	// traffic and back off while the panel is idle
	b := &backoff.Backoff{Min: 2 * time.Millisecond, Max: 50 * time.Millisecond, Factor: 1.5}
	for {
		select {
		case <-signalInterruptChan:
			log.Info().Msg("monitor stopped")
			return nil
		default:
		}

		frame, ok := sample(s.module)
		if !ok {
			time.Sleep(b.Duration())
			continue
		}
		b.Reset()

		event := log.Info().Uint16("x", frame.X).Uint16("y", frame.Y).Str("gesture", frame.Gesture)
		if flagExtended {
			event = event.Uint8("fingers", frame.Fingers).Uint16("bpc0", frame.BPC0).Uint16("bpc1", frame.BPC1)
		}
		event.Msg("touch")

		if port != nil {
			if err := forwardFrame(port, frame); err != nil {
				log.Error().Err(err).Msg("failed to forward event")
			}
		}
	}
}

func sample(module *cst816s.Module) (eventFrame, bool) {
	if flagExtended {
		event, ok := module.EventExtended()
		if !ok {
			return eventFrame{}, false
		}
		return eventFrame{
			X:       event.Point.X,
			Y:       event.Point.Y,
			Gesture: event.Gesture.String(),
			Fingers: event.Fingers,
			BPC0:    event.BPC0,
			BPC1:    event.BPC1,
		}, true
	}
	event, ok := module.Event()
	if !ok {
		return eventFrame{}, false
	}
	return eventFrame{X: event.Point.X, Y: event.Point.Y, Gesture: event.Gesture.String()}, true
}

func forwardFrame(port *serial.Port, frame eventFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := port.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event to serial port: %w", err)
	}
	return nil
}

func runConfigure(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	if flagDefaults {
		if err := s.module.Configure(); err != nil {
			return err
		}
		log.Info().Msg("default profile applied")
	}

	flags := cmd.Flags()
	builder := cst816s.NewConfigBuilder(s.module)
	staged := false
	stage := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
			staged = true
		}
	}

	stage("double-click", func() { builder.DoubleClick(flagDoubleClick) })
	stage("continuous-ud", func() { builder.ContinuousUpDown(flagConUD) })
	stage("continuous-lr", func() { builder.ContinuousLeftRight(flagConLR) })
	stage("irq-touch", func() { builder.InterruptOnTouch(flagIrqTouch) })
	stage("irq-change", func() { builder.InterruptOnChange(flagIrqChange) })
	stage("irq-motion", func() { builder.InterruptOnMotion(flagIrqMotion) })
	stage("irq-once-wlp", func() { builder.InterruptOncePerLongPress(flagIrqOnceWLP) })
	stage("pulse-width", func() { builder.PulseWidth(cst816s.PulseWidth(flagPulseWidth)) })
	stage("scan-period", func() { builder.NormalScanPeriod(flagScanPeriod) })
	stage("auto-sleep", func() { builder.AutoSleepTime(flagAutoSleep) })
	stage("long-press", func() { builder.LongPressTime(flagLongPress) })
	stage("auto-reset", func() { builder.AutoReset(flagAutoReset) })
	stage("lp-threshold", func() { builder.LowPowerScanThreshold(flagLpThreshold) })
	stage("lp-window", func() { builder.LowPowerScanWindow(flagLpWindow) })
	stage("lp-freq", func() { builder.LowPowerScanFrequency(flagLpFreq) })
	stage("no-auto-sleep", func() { builder.DisableAutoSleep(flagNoAutoSleep) })

	if !staged {
		if !flagDefaults {
			log.Warn().Msg("nothing to configure, pass at least one flag")
		}
		return nil
	}
	if err := builder.WriteConfig(); err != nil {
		return err
	}
	log.Info().Msg("configuration written")
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	chipID, err := s.module.ChipID()
	if err != nil {
		return err
	}
	projID, err := s.module.ProjectID()
	if err != nil {
		return err
	}
	fwVersion, err := s.module.FirmwareVersion()
	if err != nil {
		return err
	}
	width, err := s.module.PulseWidth()
	if err != nil {
		return err
	}

	fmt.Printf("chip id:          0x%02X\n", chipID)
	fmt.Printf("project id:       0x%02X\n", projID)
	fmt.Printf("firmware version: 0x%02X\n", fwVersion)
	fmt.Printf("irq pulse width:  %d (%s)\n", uint8(width), width.Duration())
	return nil
}

func runRegisters(cmd *cobra.Command, args []string) error {
	fmt.Printf("%-16s %-6s %-5s %-7s %-6s %-10s %s\n", "NAME", "ADDR", "BITS", "ACCESS", "RESET", "SOURCE", "NOTES")
	for _, descriptor := range cst816s.Registers() {
		notes := ""
		if descriptor.Size() == 2 {
			notes = "composite, two byte read"
		} else if descriptor.Overlaps {
			notes = "shares storage with a composite"
		}
		fmt.Printf("%-16s 0x%02X   %-5d %-7s 0x%02X   %-10s %s\n",
			descriptor.Name, uint8(descriptor.Address), descriptor.Bits,
			descriptor.Access, descriptor.Reset, descriptor.Source, notes)
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.module.Reset(); err != nil {
		return err
	}
	log.Info().Msg("touch controller reset")
	return nil
}

func runSleep(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.module.DeepSleep(); err != nil {
		return err
	}
	log.Info().Msg("touch controller in deep sleep, reset to wake it up")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}
