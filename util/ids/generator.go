package ids

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var ErrIdSpaceExhausted = errors.New("failed to generate an unused identifier")

// Generator issues random hex identifiers that are unique among everything it
// has issued or reserved. It is not safe for concurrent use.
type Generator struct {
	entropy     io.Reader
	nBytes      int
	maxAttempts int
	issued      map[string]struct{}
}

func NewGenerator(nBytes int, maxAttempts int) *Generator {
	return NewGeneratorFromReader(rand.Reader, nBytes, maxAttempts)
}

func NewGeneratorFromReader(entropy io.Reader, nBytes int, maxAttempts int) *Generator {
	return &Generator{
		entropy:     entropy,
		nBytes:      nBytes,
		maxAttempts: maxAttempts,
		issued:      make(map[string]struct{}),
	}
}

func (g *Generator) Next() (string, error) {
	b := make([]byte, g.nBytes)
	for attempts := 0; attempts < g.maxAttempts; attempts++ {
		if _, err := io.ReadFull(g.entropy, b); err != nil {
			return "", fmt.Errorf("error reading entropy: %w", err)
		}
		id := hex.EncodeToString(b)
		if _, exists := g.issued[id]; exists {
			continue
		}
		g.issued[id] = struct{}{}
		return id, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIdSpaceExhausted, g.maxAttempts)
}

// Reserve marks an identifier as issued without generating it.
func (g *Generator) Reserve(id string) {
	g.issued[id] = struct{}{}
}

func (g *Generator) IsIssued(id string) bool {
	_, ok := g.issued[id]
	return ok
}

func (g *Generator) Len() int {
	return len(g.issued)
}
