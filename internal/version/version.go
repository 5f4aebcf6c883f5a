// Package version centralizes component version strings: one constant
// per package instead of a single module-wide version number.
package version

// Version system: vMAJOR.MINOR.PATCH
const (
	Module = "v0.1.0"

	Alphabet      = "v1.0.0"
	Word          = "v1.0.0"
	Codon         = "v1.0.0"
	SubstMatrix   = "v1.0.0"
	Ecurve        = "v1.0.0"
	Storage       = "v1.0.0"
	Mosaic        = "v1.0.0"
	Classifier    = "v1.0.0"
	DNAClassifier = "v1.0.0"
	ORF           = "v1.0.0"
	Builder       = "v1.0.0"
	Database      = "v1.0.0"
)
