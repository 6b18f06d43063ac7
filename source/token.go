package source

import (
	"fmt"
	"iter"

	"github.com/nixxel-company-limited/escp-print/escp"
)

// TokenKind distinguishes the variants of Token
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenStart
	TokenEnd
)

// Token is one item of a highlighter's output: either text, or the
// start or end of a region such as "keyword" or "comment".
type Token struct {
	Kind  TokenKind
	Text  string // TokenText only
	Class string // TokenStart and TokenEnd only
}

// Text returns a text token
func Text(s string) Token {
	return Token{Kind: TokenText, Text: s}
}

// StartRegion returns a token opening a region of the given class
func StartRegion(class string) Token {
	return Token{Kind: TokenStart, Class: class}
}

// EndRegion returns a token closing a region of the given class
func EndRegion(class string) Token {
	return Token{Kind: TokenEnd, Class: class}
}

func (t Token) String() string {
	switch t.Kind {
	case TokenStart:
		return fmt.Sprintf("Start(%s)", t.Class)
	case TokenEnd:
		return fmt.Sprintf("End(%s)", t.Class)
	default:
		return fmt.Sprintf("Text(%q)", t.Text)
	}
}

// Region classes with a printer style
const (
	ClassKeyword = "keyword"
	ClassComment = "comment"
	ClassString  = "string"
)

// classAttribute maps a region class onto the attribute it toggles.
// Classes outside the table have no printed style.
func classAttribute(class string) (escp.Attribute, bool) {
	switch class {
	case ClassKeyword:
		return escp.AttrBold, true
	case ClassComment:
		return escp.AttrItalic, true
	case ClassString:
		return escp.AttrUnderline, true
	}
	return 0, false
}

// Apply folds a region token into style. Text tokens and unknown
// classes leave style untouched.
func (t Token) Apply(style escp.Flags) escp.Flags {
	a, ok := classAttribute(t.Class)
	if !ok {
		return style
	}
	switch t.Kind {
	case TokenStart:
		return style.With(a, true)
	case TokenEnd:
		return style.With(a, false)
	}
	return style
}

// TokenFragments turns a flat token stream into fragments. Region
// tokens only change the running style; text tokens become fragments.
func TokenFragments(tokens []Token) iter.Seq[escp.Fragment] {
	return func(yield func(escp.Fragment) bool) {
		var style escp.Flags
		emitTokens(&style, tokens, yield)
	}
}

// HighlightFragments turns highlighted lines into fragments. Each line is
// prefixed with its 1-based number and terminated by a newline. The running
// style carries over from one line to the next, so a region left open at
// the end of a line continues on the following one.
func HighlightFragments(lines [][]Token) iter.Seq[escp.Fragment] {
	return func(yield func(escp.Fragment) bool) {
		var style escp.Flags
		for i, line := range lines {
			if !yield(escp.Fragment{Text: lineNumber(i + 1), Style: style}) {
				return
			}
			if !emitTokens(&style, line, yield) {
				return
			}
			if !yield(escp.Fragment{Text: "\n", Style: style}) {
				return
			}
		}
	}
}

func emitTokens(style *escp.Flags, tokens []Token, yield func(escp.Fragment) bool) bool {
	for _, tok := range tokens {
		if tok.Kind != TokenText {
			*style = tok.Apply(*style)
			continue
		}
		if tok.Text == "" {
			continue
		}
		if !yield(escp.Fragment{Text: tok.Text, Style: *style}) {
			return false
		}
	}
	return true
}

func lineNumber(n int) string {
	return fmt.Sprintf("%5d |", n)
}
