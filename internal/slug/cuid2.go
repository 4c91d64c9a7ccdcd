package slug

import (
	"fmt"

	"github.com/nrednav/cuid2"
)

const DefaultCUID2Length = 12

// CUID2Generator generates CUID2 slugs.
type CUID2Generator struct {
	length   int
	generate func() string
}

// NewCUID2Generator creates a new CUID2Generator. length must be between 6 and 32.
func NewCUID2Generator(length int) (*CUID2Generator, error) {
	if length < 6 || length > 32 {
		return nil, fmt.Errorf("cuid2 length must be between 6 and 32, got %d", length)
	}
	gen, err := cuid2.Init(cuid2.WithLength(length))
	if err != nil {
		return nil, fmt.Errorf("failed to init CUID2 generator: %w", err)
	}
	return &CUID2Generator{length: length, generate: gen}, nil
}

func (g *CUID2Generator) Generate() (string, error) {
	return g.generate(), nil
}

func (g *CUID2Generator) Validate(s string) (bool, string) {
	if len(s) != g.length {
		return false, fmt.Sprintf("expected length %d, got %d", g.length, len(s))
	}
	if !cuid2.IsCuid(s) {
		return false, "invalid CUID2 format"
	}
	return true, ""
}
