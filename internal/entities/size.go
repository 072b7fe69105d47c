package entities

// PackageSize is a weight-derived shipping category.
type PackageSize string

const (
	SizeS  PackageSize = "S"
	SizeM  PackageSize = "M"
	SizeL  PackageSize = "L"
	SizeXL PackageSize = "XL"
)

// SizeFromWeight maps a weight in grams to a package size.
// Boundaries: <200g S, <1kg M, <10kg L, everything above XL.
func SizeFromWeight(grams int) PackageSize {
	switch {
	case grams < 200:
		return SizeS
	case grams < 1000:
		return SizeM
	case grams < 10000:
		return SizeL
	default:
		return SizeXL
	}
}

// Valid reports whether s is one of the known sizes.
func (s PackageSize) Valid() bool {
	switch s {
	case SizeS, SizeM, SizeL, SizeXL:
		return true
	}
	return false
}
