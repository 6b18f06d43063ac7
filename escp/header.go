package escp

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Stat is one "title: value" line of a file header
type Stat struct {
	Title string
	Value string
}

// Header is the banner printed above a file: a double-width bold title
// followed by right-aligned bold stats.
type Header struct {
	Title string
	Stats []Stat
}

// HeaderForFile builds the header for path. An empty title falls back to
// the path itself. Stats that cannot be read are left out.
func HeaderForFile(path, title string) Header {
	if title == "" {
		title = path
	}
	h := Header{Title: title}

	info, err := os.Stat(path)
	if err != nil {
		return h
	}
	h.Stats = StatsFor(info)
	return h
}

// StatsFor formats the modification time and size of a file
func StatsFor(info os.FileInfo) []Stat {
	return []Stat{
		{Title: "Modified", Value: info.ModTime().Format(time.RFC1123Z)},
		{Title: "File Size", Value: humanize.IBytes(uint64(info.Size()))},
	}
}

// Render writes the header followed by a blank line
func (h Header) Render(w io.Writer) error {
	width := 0
	for _, s := range h.Stats {
		width = max(width, len(s.Value))
	}

	var state State
	var buf []byte

	buf = append(buf, DoubleWidthOn...)
	buf = state.AppendTransition(buf, Flags{Bold: true})
	buf = append(buf, h.Title...)
	buf = state.AppendClear(buf)
	buf = append(buf, DoubleWidthOff...)
	buf = append(buf, '\n')

	buf = append(buf, AlignRight...)
	for _, s := range h.Stats {
		buf = state.AppendTransition(buf, Flags{Bold: true})
		buf = fmt.Appendf(buf, "%s: %-*s", s.Title, width, s.Value)
		buf = state.AppendClear(buf)
		buf = append(buf, '\n')
	}
	buf = append(buf, AlignLeft...)
	buf = append(buf, '\n', '\n')

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}
