package escp

// Flags is a requested combination of styles. The zero value is plain text.
type Flags struct {
	Bold      bool
	Italic    bool
	Underline bool
}

// Get reports whether the attribute is set
func (f Flags) Get(a Attribute) bool {
	switch a {
	case AttrBold:
		return f.Bold
	case AttrItalic:
		return f.Italic
	case AttrUnderline:
		return f.Underline
	}
	return false
}

// With returns a copy of f with the attribute set to on
func (f Flags) With(a Attribute, on bool) Flags {
	switch a {
	case AttrBold:
		f.Bold = on
	case AttrItalic:
		f.Italic = on
	case AttrUnderline:
		f.Underline = on
	}
	return f
}

// Plain reports whether no attribute is set
func (f Flags) Plain() bool {
	return f == Flags{}
}

// State tracks the styles currently active on an output stream.
// Every enable code appended by a State has a matching disable code
// once AppendClear runs, and no code is appended for an attribute
// that does not change.
type State struct {
	active Flags
}

// Flags returns the styles currently active
func (s *State) Flags() Flags {
	return s.active
}

// AppendTransition appends the codes needed to move from the active
// styles to target and records target as active.
func (s *State) AppendTransition(dst []byte, target Flags) []byte {
	for _, a := range attributes {
		want := target.Get(a)
		if s.active.Get(a) == want {
			continue
		}
		if want {
			dst = append(dst, a.Enable()...)
		} else {
			dst = append(dst, a.Disable()...)
		}
		s.active = s.active.With(a, want)
	}
	return dst
}

// AppendClear appends a disable code for every active attribute.
func (s *State) AppendClear(dst []byte) []byte {
	return s.AppendTransition(dst, Flags{})
}
