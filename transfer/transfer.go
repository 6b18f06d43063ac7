package transfer

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds a single write call on the endpoint
	DefaultTimeout = 10 * time.Second

	// DefaultChunkSize is the read size used in binary mode
	DefaultChunkSize = 1024
)

// Endpoint is a device endpoint accepting bulk writes. A write may accept
// fewer bytes than requested without failing.
type Endpoint interface {
	WriteContext(ctx context.Context, data []byte) (int, error)
}

// Transfer writes all of buf to ep. Each call on the endpoint is bounded by
// timeout; a short write advances the cursor by the accepted count and the
// remainder is sent by the next call. The first error ends the transfer.
func Transfer(ctx context.Context, ep Endpoint, buf []byte, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	written := 0
	for written < len(buf) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		n, err := ep.WriteContext(callCtx, buf[written:])
		cancel()

		if n > 0 {
			written = min(written+n, len(buf))
		}
		if err != nil {
			return &TransferError{Op: "bulk write", Written: written, Total: len(buf), Err: err}
		}
		if n <= 0 {
			return &TransferError{Op: "bulk write", Written: written, Total: len(buf), Err: ErrNoProgress}
		}
	}
	return nil
}
