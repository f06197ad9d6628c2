package service

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	codeMin  = 10000
	codeSpan = 90000
)

// Generator mints attendance code values.
type Generator interface {
	Generate() string
}

// RandomGenerator draws uniformly from 10000-99999. The leading digit is
// never zero; this keeps new codes byte-compatible with every code already
// displayed and stored by existing clients.
type RandomGenerator struct{}

func (RandomGenerator) Generate() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(codeSpan))
	return strconv.FormatInt(codeMin+n.Int64(), 10)
}
