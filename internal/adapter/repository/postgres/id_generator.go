package postgres

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

const (
	accountNumberMin = 10_000_000
	accountNumberMax = 99_999_999

	transactionNumberPrefix = "TXN"
)

var accountNumberSpan = big.NewInt(accountNumberMax - accountNumberMin + 1)

// NumberGenerator issues account numbers, transaction numbers and transfer correlation codes.
type NumberGenerator struct{}

// NewNumberGenerator creates a new NumberGenerator.
func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{}
}

// AccountNumber returns a random 8-digit number. Uniqueness is checked by the caller.
func (g *NumberGenerator) AccountNumber() string {
	n, err := rand.Int(rand.Reader, accountNumberSpan)
	if err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return fmt.Sprintf("%08d", n.Int64()+accountNumberMin)
}

// TransactionNumber returns a time-ordered, human-readable transaction number.
func (g *NumberGenerator) TransactionNumber() string {
	return transactionNumberPrefix + ulid.Make().String()
}

// CorrelationCode returns the shared tag for the two legs of a transfer.
func (g *NumberGenerator) CorrelationCode() string {
	return uuid.NewString()
}
