// Command indus-daq is the telemetry agent for the DAQ gateway: it counts
// pulses on the output and rejection signal lines, samples the CT current
// sensor, and periodically reports to the MES server, escalating to a device
// reset after persistent failure.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/api"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/config"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/counter"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/device"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/network"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/sensor"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/statelog"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/supervisor"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/telemetry"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/watchdog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")

	resetter := device.ExitResetter{}

	if err := run(cfg, resetter); err != nil {
		// The two fatal paths (unusable configuration, escalated failure)
		// both end in a reset; escalation resets from inside the tracker,
		// so anything surfacing here is a configuration-class fault.
		logger.Error().
			Str("error_code", string(errors.CodeOf(err))).
			Err(err).
			Msg("Fatal error")
		resetter.Reset("startup failure")
	}
}

func run(cfg *config.Config, resetter device.Resetter) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	client, err := api.NewClient(api.Config{
		Site:      cfg.Site,
		DeviceID:  cfg.DeviceID,
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		Timeout:   time.Duration(cfg.HTTPTimeout) * time.Second,
	})
	if err != nil {
		return err
	}

	remote, err := client.GetDeviceConfiguration(ctx)
	if err != nil {
		return err
	}

	acc := counter.NewAccumulator()

	if remote.EnableOutputSignal.Bool() {
		polarity, err := counter.ParseSignalType(remote.OutputSignalType)
		if err != nil {
			return err
		}
		output := counter.NewLineCounter(cfg.GPIOChip, cfg.OutputPin, polarity,
			remote.OutputSignalThreshold, acc.Overflow(counter.ChannelOutput))
		if err := output.Start(); err != nil {
			return err
		}
		defer output.Close()
	}

	if remote.EnableRejectionSignal.Bool() {
		polarity, err := counter.ParseSignalType(remote.RejectionSignalType)
		if err != nil {
			return err
		}
		rejection := counter.NewLineCounter(cfg.GPIOChip, cfg.RejectionPin, polarity,
			remote.RejectionSignalThreshold, acc.Overflow(counter.ChannelRejection))
		if err := rejection.Start(); err != nil {
			return err
		}
		defer rejection.Close()
	}

	sensorEnabled := remote.EnableStateLogging.Bool()
	current := sensor.NewCache(sensor.NewIIOSensor(cfg.SensorPath, cfg.SensorScale))
	if sensorEnabled {
		if err := current.Warmup(cfg.WarmupReads); err != nil {
			return err
		}
	}

	recorder, err := statelog.NewService(statelog.Config{
		Enabled: sensorEnabled,
		DBPath:  cfg.StateLogDB,
	})
	if err != nil {
		return err
	}
	defer recorder.Close()

	tracker := telemetry.NewFailureTracker(cfg.MaxFailures, resetter)

	monitor := &network.ProbeMonitor{Addr: probeAddr(cfg.Site)}
	recovery := network.NewRecovery(monitor, client.Rebuild)

	reporter := telemetry.NewReporter(acc, current, client, recovery, tracker,
		remote.EnableOutputSignal.Bool(), remote.EnableRejectionSignal.Bool())

	wdog := watchdog.New(time.Duration(cfg.WatchdogTimeout)*time.Second, resetter)
	go wdog.Run(ctx)

	interval := remote.TelemetryLoggingFrequency
	if interval <= 0 {
		interval = cfg.TelemetryInterval
	}
	// A reporter that cannot run leaves the device alive but mute, which is
	// worse than a reset. Its failure tears down the supervisor and surfaces
	// as a fatal error.
	reporterErr := make(chan error, 1)
	go func() {
		if err := reporter.Run(ctx, time.Duration(interval)*time.Second); err != nil {
			reporterErr <- err
			cancel()
		}
	}()

	logger.Info().
		Int("telemetry_frequency", interval).
		Bool("output_signal", remote.EnableOutputSignal.Bool()).
		Bool("rejection_signal", remote.EnableRejectionSignal.Bool()).
		Bool("state_logging", sensorEnabled).
		Msg("System initialized")

	sup := &supervisor.Supervisor{
		Accumulator:   acc,
		Current:       current,
		Watchdog:      wdog,
		Tracker:       tracker,
		Recorder:      recorder,
		Interval:      time.Duration(cfg.SupervisorInterval) * time.Second,
		SensorEnabled: sensorEnabled,
	}

	if err := sup.Run(ctx); err != nil {
		return err
	}

	select {
	case err := <-reporterErr:
		return err
	default:
		return nil
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// probeAddr derives the connectivity probe target from the configured site:
// the HTTPS port of the telemetry server.
func probeAddr(site string) string {
	host := site
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, "443")
}
