package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escp-print/adapter"
	"github.com/nixxel-company-limited/escp-print/config"
	"github.com/nixxel-company-limited/escp-print/logging"
	"github.com/nixxel-company-limited/escp-print/transfer"
)

// openDevice returns the printer selected by cfg, not yet opened.
// Tests replace it with a fake.
var openDevice = func(cfg *config.Config) (adapter.Adapter, error) {
	sel, err := cfg.Selector()
	if err != nil {
		return nil, err
	}
	dev, err := adapter.NewUSBAdapter(sel)
	if err != nil {
		return nil, err
	}

	log := logging.GetLogger("usb")
	dev.On(adapter.EventConnect, func(e adapter.Event) {
		log.Debug().Msg("Printer connected")
	})
	dev.On(adapter.EventData, func(e adapter.Event) {
		log.Trace().Int("bytes", len(e.Data)).Msg("Bulk write")
	})
	dev.On(adapter.EventClose, func(e adapter.Event) {
		log.Debug().Msg("Printer released")
	})
	return dev, nil
}

// printer is an open device and the feeder writing to it
type printer struct {
	dev    adapter.Adapter
	feeder *transfer.Feeder
}

func openPrinter(cmd *cobra.Command) (*printer, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		logging.GetLogger("config").Debug().Str("file", cfg.File).Msg("Config loaded")
	}

	dev, err := openDevice(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to find printer: %w", err)
	}
	if err := dev.Open(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("failed to open printer: %w", err)
	}

	feeder := transfer.NewFeeder(dev, append(cfg.FeederOptions(), transfer.WithLogger(logging.GetLogger("transfer")))...)
	return &printer{dev: dev, feeder: feeder}, nil
}

func (p *printer) Close() error {
	return p.dev.Close()
}

// outputSink returns where rendered ESC/P goes: the printer when toUSB is
// set, stdout otherwise.
func outputSink(ctx context.Context, cmd *cobra.Command, toUSB bool) (io.Writer, func() error, error) {
	if !toUSB {
		out := cmd.OutOrStdout()
		if logging.IsTerminal(out) {
			logging.GetLogger("output").Warn().Msg("Writing printer control codes to a terminal")
		}
		return out, func() error { return nil }, nil
	}

	p, err := openPrinter(cmd)
	if err != nil {
		return nil, nil, err
	}
	return p.feeder.Writer(ctx), p.Close, nil
}

// readInput reads all of r, reporting failures as source read errors
func readInput(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &transfer.SourceReadError{Source: name, Err: err}
	}
	return string(data), nil
}
