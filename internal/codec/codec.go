// Package codec mints and checks gemstone piece codes of the form
// GM-YYMM-GEM-NNN-CCCC.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

const (
	// Prefix is the literal first segment of every code.
	Prefix = "GM"
	// MixPart replaces the gemstone segment when more than one gemstone is used.
	MixPart = "MIX"
	// Alphabet is the checksum symbol set. I and O are left out.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	checksumModulus = 9999
	checksumLength  = 4
	segmentCount    = 5
)

// ErrInvalidFormat is the only error the codec reports.
var ErrInvalidFormat = errors.New("invalid code format")

// Components holds the fields recovered from a code string.
type Components struct {
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	GemstonePart string `json:"gemstone_part"`
	PieceNumber  int    `json:"piece_number"`
	Checksum     string `json:"checksum"`
}

// ResolveAbbreviation returns the three letter code for a gemstone name.
// Exact table matches win, then the first table entry that contains or is
// contained in the name. Otherwise the first three letters of the name are
// used, padded with 'X'.
func ResolveAbbreviation(name string) string {
	upper := strings.ToUpper(name)

	for _, a := range abbreviationTable {
		if a.Name == upper {
			return a.Code
		}
	}

	for _, a := range abbreviationTable {
		if strings.Contains(upper, a.Name) || strings.Contains(a.Name, upper) {
			return a.Code
		}
	}

	letters := make([]byte, 0, 3)
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if c := upper[i]; c >= 'A' && c <= 'Z' {
			letters = append(letters, c)
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}

// GroupKey joins gemstone names the way the checksum expects them.
func GroupKey(names []string) string {
	return strings.Join(names, ",")
}

// ComputeChecksum derives the four symbol suffix of a code. The arithmetic
// must stay bit-for-bit stable so existing codes keep verifying.
func ComputeChecksum(groupKey string, month, year, sequence int) string {
	base := 0
	for _, unit := range utf16.Encode([]rune(groupKey)) {
		base += int(unit)
	}

	dateVal := month*year + sequence
	hash := (base*17 + dateVal*23) % checksumModulus
	if hash < 0 {
		hash += checksumModulus
	}

	out := make([]byte, checksumLength)
	for i := checksumLength - 1; i >= 0; i-- {
		out[i] = Alphabet[hash%len(Alphabet)]
		hash /= len(Alphabet)
	}
	return string(out)
}

// GemstonePart is the third code segment: the abbreviation of a single
// gemstone, or MIX for anything else.
func GemstonePart(names []string) string {
	if len(names) == 1 {
		return ResolveAbbreviation(names[0])
	}
	return MixPart
}

// Generate builds the full code for a piece. The checksum covers the raw
// gemstone names, not the abbreviation or the MIX marker.
func Generate(names []string, month, year, piece int) string {
	checksum := ComputeChecksum(GroupKey(names), month, year, piece)

	return fmt.Sprintf("%s-%02d%02d-%s-%03d-%s", Prefix, year%100, month, GemstonePart(names), piece, checksum)
}

// Parse splits a code into its components. Every malformed input yields
// (nil, false); callers cannot tell which check failed.
func Parse(code string) (*Components, bool) {
	parts := strings.Split(code, "-")
	if len(parts) != segmentCount || parts[0] != Prefix {
		return nil, false
	}

	monthYear := parts[1]
	if len(monthYear) != 4 {
		return nil, false
	}
	yy, err := strconv.Atoi(monthYear[:2])
	if err != nil {
		return nil, false
	}
	month, err := strconv.Atoi(monthYear[2:])
	if err != nil || month < 1 || month > 12 {
		return nil, false
	}

	piece, err := strconv.Atoi(parts[3])
	if err != nil || piece < 1 {
		return nil, false
	}

	return &Components{
		Year:         2000 + yy,
		Month:        month,
		GemstonePart: parts[2],
		PieceNumber:  piece,
		Checksum:     parts[4],
	}, true
}

// ParseErr is Parse with an error return for callers that propagate errors.
func ParseErr(code string) (*Components, error) {
	c, ok := Parse(code)
	if !ok {
		return nil, ErrInvalidFormat
	}
	return c, nil
}

// Verify regenerates the code from ground truth and compares whole strings.
func Verify(code string, names []string, month, year, piece int) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return Generate(names, month, year, piece) == code
}
