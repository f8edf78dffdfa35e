// Package constants provides named constants shared across mina.
package constants

// DirName is the name of the mina data directory, both under $HOME and
// under a project root.
const DirName = ".mina"

// Generator defaults
const (
	// DefaultSeed is the seed used when none is configured.
	DefaultSeed uint64 = 42

	// DefaultLength is the number of arrivals generated when no length is given.
	DefaultLength = 1000

	// DefaultPoissonBatch is the refill size of the poisson generator.
	DefaultPoissonBatch = 1024
)

// Generator kinds
const (
	ModelCascade = "cascade"
	ModelPoisson = "poisson"
)

// Output formats
const (
	FormatText  = "text"
	FormatArrow = "arrow"
)
