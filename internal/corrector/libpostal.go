package corrector

// libpostalParse is overridden by libpostal_cgo.go when the binary is built
// with cgo and libpostal available. It returns the field labels libpostal's
// generic address parser assigns to tokens in s. The default here makes the
// libpostal-assist step a no-op in pure-Go builds.
var libpostalParse = func(s string) (labels map[string]string, ok bool) {
	return nil, false
}
