package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-peer/internal/apperror"
)

const (
	CodeLength   = 4
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode - generates a rendezvous code for the room.
func GenerateCode() string {
	var sb strings.Builder
	sb.Grow(CodeLength)

	limit := big.NewInt(int64(len(codeAlphabet)))
	for range CodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(fmt.Errorf("could not read random: %w", err))
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}

	return sb.String()
}

// NormalizeCode - trims and upper-cases user input.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidateCode - checks an already normalized code.
func ValidateCode(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("%w: want %d characters, got %d", apperror.ErrInvalidCode, CodeLength, len(code))
	}

	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			return fmt.Errorf("%w: unexpected character %q", apperror.ErrInvalidCode, r)
		}
	}

	return nil
}

// GeneratePeerID - generates a unique identifier for a link endpoint.
func GeneratePeerID() string {
	return uuid.NewString()
}
