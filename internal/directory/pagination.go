package directory

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a normalized 1-based search window.
type Page struct {
	Number int
	Size   int
	From   int
}

// NewPage clamps a requested page. Missing sizes fall back to the default and
// oversized ones are capped rather than rejected.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Page{Number: number, Size: size, From: (number - 1) * size}
}
