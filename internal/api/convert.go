package api

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseDecimal converts a gateway decimal string to float64.
// Empty input is an error, negative values are rejected.
func parseDecimal(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%s: empty value", field)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%s: negative value %s", field, s)
	}

	return d.InexactFloat64(), nil
}

// ToPool converts an APIPool into a Pool.
func (p APIPool) ToPool() (Pool, error) {
	price, err := parseDecimal("price", p.Price)
	if err != nil {
		return Pool{}, err
	}
	liquidity, err := parseDecimal("liquidity", p.Liquidity)
	if err != nil {
		return Pool{}, err
	}

	return Pool{
		Address:   p.Address,
		Token0:    p.Token0,
		Token1:    p.Token1,
		Price:     price,
		Liquidity: liquidity,
		UpdatedAt: p.UpdatedAt,
	}, nil
}
