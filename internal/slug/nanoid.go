package slug

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	DefaultNanoIDSize = 10
	// URL safe, without 0/O, 1/I/l and i/o so labels can be typed from print.
	DefaultNanoIDAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
)

// NanoIDGenerator generates NanoID slugs with configurable size and alphabet.
type NanoIDGenerator struct {
	size     int
	alphabet string
}

// NewNanoIDGenerator creates a new NanoIDGenerator.
// size must be between 6 and 64. alphabet must have at least 2 characters.
func NewNanoIDGenerator(size int, alphabet string) (*NanoIDGenerator, error) {
	if size < 6 || size > 64 {
		return nil, fmt.Errorf("nanoid size must be between 6 and 64, got %d", size)
	}
	if len(alphabet) < 2 {
		return nil, fmt.Errorf("nanoid alphabet must have at least 2 characters, got %d", len(alphabet))
	}
	return &NanoIDGenerator{size: size, alphabet: alphabet}, nil
}

func (g *NanoIDGenerator) Generate() (string, error) {
	id, err := gonanoid.Generate(g.alphabet, g.size)
	if err != nil {
		return "", fmt.Errorf("failed to generate slug: %w", err)
	}
	return id, nil
}

func (g *NanoIDGenerator) Validate(s string) (bool, string) {
	if len(s) != g.size {
		return false, fmt.Sprintf("expected length %d, got %d", g.size, len(s))
	}
	for _, c := range s {
		if !strings.ContainsRune(g.alphabet, c) {
			return false, fmt.Sprintf("character '%c' not in alphabet", c)
		}
	}
	return true, ""
}
