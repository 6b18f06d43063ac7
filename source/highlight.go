package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Highlighter produces region tokens for source code using a chroma lexer
type Highlighter struct {
	lexer chroma.Lexer
}

// HighlighterFor picks a highlighter by file name, then by the fallback
// extension or language name. It returns nil when neither is known, or
// when the only match is the plain text lexer.
func HighlighterFor(path, fallback string) *Highlighter {
	var lexer chroma.Lexer
	if path != "" {
		lexer = lexers.Match(filepath.Base(path))
	}
	if lexer == nil && fallback != "" {
		lexer = lexers.Get(strings.TrimPrefix(fallback, "."))
	}
	if lexer == nil || lexer.Config().Name == "plaintext" {
		return nil
	}
	return &Highlighter{lexer: chroma.Coalesce(lexer)}
}

// Name returns the language handled by the highlighter
func (h *Highlighter) Name() string {
	return h.lexer.Config().Name
}

// Lines tokenises src and returns one token list per source line, without
// line terminators. A region is opened whenever the token class changes and
// stays open across line breaks; the final region is closed on the last line.
func (h *Highlighter) Lines(src string) ([][]Token, error) {
	it, err := h.lexer.Tokenise(nil, src)
	if err != nil {
		return nil, fmt.Errorf("tokenise %s: %w", h.Name(), err)
	}

	var (
		lines [][]Token
		open  string
	)
	for _, row := range chroma.SplitTokensIntoLines(it.Tokens()) {
		if joinValues(row) == "" {
			// remainder after the final newline
			continue
		}

		var line []Token
		for _, tok := range row {
			if tok.Value == "" {
				continue
			}
			class := regionClass(tok.Type)
			if class != open {
				if open != "" {
					line = append(line, EndRegion(open))
				}
				if class != "" {
					line = append(line, StartRegion(class))
				}
				open = class
			}
			if text := strings.TrimSuffix(strings.TrimSuffix(tok.Value, "\n"), "\r"); text != "" {
				line = append(line, Text(text))
			}
		}
		lines = append(lines, line)
	}

	if open != "" && len(lines) > 0 {
		last := len(lines) - 1
		lines[last] = append(lines[last], EndRegion(open))
	}
	return lines, nil
}

// regionClass collapses a chroma token type into a region class. Keyword,
// comment and string classes carry a printer style; other categories are
// named after their chroma category and print plain.
func regionClass(tt chroma.TokenType) string {
	switch {
	case tt.InCategory(chroma.Keyword):
		return ClassKeyword
	case tt.InCategory(chroma.Comment):
		return ClassComment
	case tt.InSubCategory(chroma.LiteralString):
		return ClassString
	case tt.InCategory(chroma.Text):
		return ""
	}
	return strings.ToLower(tt.Category().String())
}

func joinValues(tokens []chroma.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Value)
	}
	return b.String()
}
