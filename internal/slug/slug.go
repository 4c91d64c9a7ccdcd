// Package slug mints the short public identifiers printed on QR labels.
package slug

import "fmt"

// Generator mints and validates public slugs.
type Generator interface {
	Generate() (string, error)
	// Validate reports whether s could have been produced by this generator,
	// and if not, why.
	Validate(s string) (bool, string)
}

// Types.
const (
	TypeNanoID = "nanoid"
	TypeCUID2  = "cuid2"
)

// Config selects the slug scheme.
type Config struct {
	Type string `mapstructure:"type"`
	Size int    `mapstructure:"size"`
}

// New returns the generator for cfg.Type. A zero size picks the scheme default.
func New(cfg Config) (Generator, error) {
	switch cfg.Type {
	case TypeNanoID, "":
		size := cfg.Size
		if size == 0 {
			size = DefaultNanoIDSize
		}
		return NewNanoIDGenerator(size, DefaultNanoIDAlphabet)
	case TypeCUID2:
		size := cfg.Size
		if size == 0 {
			size = DefaultCUID2Length
		}
		return NewCUID2Generator(size)
	default:
		return nil, fmt.Errorf("unsupported slug type: %s", cfg.Type)
	}
}
