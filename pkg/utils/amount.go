package utils

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
)

// ParseWei parses a non-negative decimal or 0x prefixed hex integer amount of wei
func ParseWei(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, errors.New("empty amount")
	}
	wei, ok := math.ParseBig256(amount)
	if !ok {
		return nil, errors.Errorf("invalid amount: %v", amount)
	}
	if wei.Sign() < 0 {
		return nil, errors.Errorf("negative amount: %v", amount)
	}
	return wei, nil
}

// ParsePositiveWei is ParseWei rejecting zero
func ParsePositiveWei(amount string) (*big.Int, error) {
	wei, err := ParseWei(amount)
	if err != nil {
		return nil, err
	}
	if wei.Sign() == 0 {
		return nil, errors.New("amount must be greater than zero")
	}
	return wei, nil
}
