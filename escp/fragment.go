package escp

import "iter"

// Fragment is a run of text printed with one style
type Fragment struct {
	Text  string
	Style Flags
}

// Fragments adapts a slice to the sequence form consumed by Render
func Fragments(frags ...Fragment) iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		for _, f := range frags {
			if !yield(f) {
				return
			}
		}
	}
}
