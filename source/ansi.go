package source

import (
	"iter"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/nixxel-company-limited/escp-print/escp"
)

// StyledBlock is a contiguous run of text sharing one style, as found
// between SGR sequences of ANSI-coloured text.
type StyledBlock struct {
	Text  string
	Style escp.Flags
}

// ParseANSI splits text into styled blocks. Only the bold, italic and
// underline parts of SGR sequences are kept; colours and all other
// escape sequences are dropped.
func ParseANSI(text string) []StyledBlock {
	var (
		blocks []StyledBlock
		style  escp.Flags
		run    strings.Builder
		state  byte
	)

	flush := func() {
		if run.Len() == 0 {
			return
		}
		blocks = append(blocks, StyledBlock{Text: run.String(), Style: style})
		run.Reset()
	}

	for len(text) > 0 {
		seq, _, n, newState := ansi.DecodeSequence(text, state, nil)
		if n <= 0 {
			n = 1
			seq = text[:1]
		}
		text = text[n:]
		state = newState

		if len(seq) == 0 || seq[0] != escp.ESC {
			run.WriteString(seq)
			continue
		}

		params, ok := sgrParams(seq)
		if !ok {
			continue
		}
		next := applySGR(style, params)
		if next != style {
			flush()
			style = next
		}
	}
	flush()

	return blocks
}

// ANSIFragments maps each block onto one fragment
func ANSIFragments(blocks []StyledBlock) iter.Seq[escp.Fragment] {
	return func(yield func(escp.Fragment) bool) {
		for _, b := range blocks {
			if !yield(escp.Fragment{Text: b.Text, Style: b.Style}) {
				return
			}
		}
	}
}

// sgrParams returns the parameter string of a CSI ... m sequence
func sgrParams(seq string) (string, bool) {
	if len(seq) < 3 || seq[1] != '[' || seq[len(seq)-1] != 'm' {
		return "", false
	}
	return seq[2 : len(seq)-1], true
}

// applySGR folds the parameters of one SGR sequence into style
func applySGR(style escp.Flags, params string) escp.Flags {
	if params == "" {
		return escp.Flags{}
	}

	fields := strings.Split(params, ";")
	for i := 0; i < len(fields); i++ {
		// Colon sub-parameters ("4:3") only refine the main parameter
		main, sub, _ := strings.Cut(fields[i], ":")
		code := 0
		if main != "" {
			n, err := strconv.Atoi(main)
			if err != nil {
				continue
			}
			code = n
		}

		switch code {
		case 0:
			style = escp.Flags{}
		case 1:
			style.Bold = true
		case 22:
			style.Bold = false
		case 3:
			style.Italic = true
		case 23:
			style.Italic = false
		case 4:
			style.Underline = sub != "0"
		case 21:
			style.Underline = true
		case 24:
			style.Underline = false
		case 38, 48, 58:
			if sub != "" {
				continue
			}
			i += extendedColorLen(fields[i+1:])
		}
	}
	return style
}

// extendedColorLen reports how many fields follow a 38/48/58 introducer
func extendedColorLen(rest []string) int {
	if len(rest) == 0 {
		return 0
	}
	switch rest[0] {
	case "5":
		return min(2, len(rest))
	case "2":
		return min(4, len(rest))
	}
	return 1
}
