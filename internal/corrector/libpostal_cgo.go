//go:build cgo

// libpostal_cgo.go wires gopostal's address parser into the corrector's
// libpostal-assist step, grounded on the teacher's
// internal/external/libpostal.go ExtractWithLibpostal.
package corrector

import (
	parser "github.com/openvenues/gopostal/parser"
)

func init() {
	libpostalParse = func(s string) (map[string]string, bool) {
		comps := parser.ParseAddress(s)
		if len(comps) == 0 {
			return nil, false
		}
		labels := make(map[string]string, len(comps))
		for _, c := range comps {
			labels[c.Label] = c.Value
		}
		return labels, true
	}
}
