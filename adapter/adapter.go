package adapter

import "context"

// Adapter defines the interface for printer communication adapters
type Adapter interface {
	// Open opens the connection to the printer
	Open() error

	// Write sends data to the printer
	Write(data []byte) (int, error)

	// WriteContext sends data to the printer, giving up when ctx is done.
	// It may accept fewer bytes than requested.
	WriteContext(ctx context.Context, data []byte) (int, error)

	// Close closes the connection to the printer
	Close() error

	// IsOpen returns whether the connection is open
	IsOpen() bool
}
