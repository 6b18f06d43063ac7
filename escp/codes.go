package escp

// ESC is the prefix byte of every control code.
const ESC = 0x1B

// Attribute toggles understood by ESC/P printers
var (
	BoldOn       = []byte{ESC, 'E'}
	BoldOff      = []byte{ESC, 'F'}
	ItalicOn     = []byte{ESC, '4'}
	ItalicOff    = []byte{ESC, '5'}
	UnderlineOn  = []byte{ESC, '-', '1'}
	UnderlineOff = []byte{ESC, '-', '0'}
)

// Layout codes used by the header renderer
var (
	DoubleWidthOn  = []byte{ESC, 'w', '1'}
	DoubleWidthOff = []byte{ESC, 'w', '0'}
	AlignRight     = []byte{ESC, 'a', '2'}
	AlignLeft      = []byte{ESC, 'a', '0'}
)

// Reset initializes the printer. FormFeed ejects the current page.
var (
	Reset    = []byte{ESC, '@'}
	FormFeed = []byte{0x0C}
)

// Attribute identifies one of the styles a State can toggle
type Attribute int

const (
	AttrBold Attribute = iota
	AttrItalic
	AttrUnderline
)

// attributes is the fixed emission order
var attributes = [...]Attribute{AttrBold, AttrItalic, AttrUnderline}

// String returns the attribute name
func (a Attribute) String() string {
	switch a {
	case AttrBold:
		return "bold"
	case AttrItalic:
		return "italic"
	case AttrUnderline:
		return "underline"
	default:
		return "unknown"
	}
}

// Enable returns the code that turns the attribute on
func (a Attribute) Enable() []byte {
	switch a {
	case AttrBold:
		return BoldOn
	case AttrItalic:
		return ItalicOn
	case AttrUnderline:
		return UnderlineOn
	}
	return nil
}

// Disable returns the code that turns the attribute off
func (a Attribute) Disable() []byte {
	switch a {
	case AttrBold:
		return BoldOff
	case AttrItalic:
		return ItalicOff
	case AttrUnderline:
		return UnderlineOff
	}
	return nil
}
