// Package shortcode generates short codes and claims unique ones against storage.
package shortcode

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

const (
	Alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	MinLength     = 4
	MaxLength     = 16 // urls.short_code is VARCHAR(16)
	DefaultLength = 6
)

var pattern = regexp.MustCompile(`^[a-zA-Z0-9]{4,}$`)

// Top-level path segments owned by other routes.
var reserved = map[string]bool{
	"api":         true,
	"api-docs":    true,
	"health":      true,
	"metrics":     true,
	"ws":          true,
	"favicon.ico": true,
}

// Generator produces candidate codes. Implementations must be safe for concurrent use.
type Generator interface {
	Generate() string
}

// RandomGenerator draws codes uniformly from Alphabet. It is not cryptographically secure.
type RandomGenerator struct {
	length int
}

// NewRandomGenerator returns a generator of the given length, clamped to [MinLength, MaxLength].
func NewRandomGenerator(length int) *RandomGenerator {
	length = min(max(length, MinLength), MaxLength)
	return &RandomGenerator{length: length}
}

func (g *RandomGenerator) Generate() string {
	b := make([]byte, g.length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b)
}

// Valid reports whether code has the shape of a short code.
func Valid(code string) bool {
	return pattern.MatchString(code)
}

// IsReserved reports whether segment belongs to another top-level route.
func IsReserved(segment string) bool {
	return reserved[strings.ToLower(segment)]
}
