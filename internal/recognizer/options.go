package recognizer

// Options controls recognizer preprocessing and decoding, mirroring
// spec.md §3's nested recognizer sub-record. InputHeight defaults to the
// model geometry spec.md §4.F names but may be raised for experimental
// models trained at a taller fixed height.
type Options struct {
	InputHeight int
	Blank       int
	Clean       CleanOptions
}

// DefaultOptions returns the reference recognizer defaults.
func DefaultOptions() Options {
	return Options{
		InputHeight: 32,
		Blank:       0,
		Clean:       DefaultCleanOptions(),
	}
}
