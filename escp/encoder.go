package escp

import (
	"bytes"
	"fmt"
	"io"
	"iter"
)

// Render writes fragments to w as ESC/P text. Each fragment is written
// with a single Write call holding its style codes followed by its text.
// The stream always ends with every attribute disabled.
func Render(w io.Writer, fragments iter.Seq[Fragment]) error {
	var (
		state State
		buf   []byte
	)

	for f := range fragments {
		buf = state.AppendTransition(buf[:0], f.Style)
		buf = append(buf, f.Text...)
		if len(buf) == 0 {
			continue
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write fragment: %w", err)
		}
	}

	buf = state.AppendClear(buf[:0])
	if len(buf) > 0 {
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write style reset: %w", err)
		}
	}
	return nil
}

// Encode renders fragments into memory
func Encode(fragments iter.Seq[Fragment]) []byte {
	var out bytes.Buffer
	// bytes.Buffer never fails a write
	_ = Render(&out, fragments)
	return out.Bytes()
}
