package transfer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixxel-company-limited/escp-print/escp"
)

// Feeder delivers print jobs to a device endpoint
type Feeder struct {
	ep        Endpoint
	timeout   time.Duration
	chunkSize int
	logger    zerolog.Logger
}

// Option configures a Feeder
type Option func(*Feeder)

// WithTimeout sets the bound on each endpoint write
func WithTimeout(d time.Duration) Option {
	return func(f *Feeder) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithChunkSize sets the read size used in binary mode
func WithChunkSize(n int) Option {
	return func(f *Feeder) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

// WithLogger sets the logger used for progress messages
func WithLogger(l zerolog.Logger) Option {
	return func(f *Feeder) {
		f.logger = l
	}
}

// NewFeeder creates a feeder writing to ep
func NewFeeder(ep Endpoint, opts ...Option) *Feeder {
	f := &Feeder{
		ep:        ep,
		timeout:   DefaultTimeout,
		chunkSize: DefaultChunkSize,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Send writes buf to the endpoint in full
func (f *Feeder) Send(ctx context.Context, buf []byte) error {
	return Transfer(ctx, f.ep, buf, f.timeout)
}

// Reset sends the printer initialization sequence. Both bytes must be
// accepted by a single write.
func (f *Feeder) Reset(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	n, err := f.ep.WriteContext(callCtx, escp.Reset)
	if err != nil {
		return &TransferError{Op: "reset", Written: max(n, 0), Total: len(escp.Reset), Err: err}
	}
	if n != len(escp.Reset) {
		return &TransferError{
			Op:      "reset",
			Written: max(n, 0),
			Total:   len(escp.Reset),
			Err:     fmt.Errorf("only transmitted %d initialization bytes", n),
		}
	}
	f.logger.Debug().Msg("Printer reset")
	return nil
}

// FeedLines sends r line by line. Every line, including an unterminated
// last line, is sent with a single "\n" terminator. When formFeed is set a
// form feed follows the last line.
func (f *Feeder) FeedLines(ctx context.Context, r io.Reader, formFeed bool) error {
	br := bufio.NewReader(r)
	lines := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSuffix(line, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))
			line = append(line, '\n')
			if sendErr := f.Send(ctx, line); sendErr != nil {
				return sendErr
			}
			lines++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &SourceReadError{Source: "input", Err: err}
		}
	}
	f.logger.Debug().Int("lines", lines).Msg("Lines sent")

	if formFeed {
		if err := f.Send(ctx, escp.FormFeed); err != nil {
			return err
		}
		f.logger.Debug().Msg("Form feed sent")
	}
	return nil
}

// FeedBinary resets the printer then copies r to the endpoint in chunks.
// Each chunk is fully accepted before the next one is read.
func (f *Feeder) FeedBinary(ctx context.Context, r io.Reader) error {
	if err := f.Reset(ctx); err != nil {
		return err
	}

	buf := make([]byte, f.chunkSize)
	total := 0
	for {
		n, err := r.Read(buf)
		if n > 0 {
			f.logger.Trace().Int("bytes", n).Msg("Read chunk")
			if sendErr := f.Send(ctx, buf[:n]); sendErr != nil {
				return sendErr
			}
			total += n
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &SourceReadError{Source: "input", Err: err}
		}
	}
	f.logger.Debug().Int("bytes", total).Msg("Binary payload sent")
	return nil
}

// Writer returns an io.Writer sending every write through Transfer
func (f *Feeder) Writer(ctx context.Context) io.Writer {
	return &feederWriter{ctx: ctx, f: f}
}

type feederWriter struct {
	ctx context.Context
	f   *Feeder
}

func (w *feederWriter) Write(p []byte) (int, error) {
	if err := w.f.Send(w.ctx, p); err != nil {
		var te *TransferError
		if errors.As(err, &te) {
			return te.Written, err
		}
		return 0, err
	}
	return len(p), nil
}
