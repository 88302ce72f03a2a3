package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrNoPool is returned by pool endpoints when no pool address is configured.
var ErrNoPool = errors.New("no pool address configured")

// GetStatus fetches the gateway sync status.
func (c *Client) GetStatus(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/v1/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &resp, nil
}

// GetPool fetches the configured pool.
func (c *Client) GetPool(ctx context.Context) (*Pool, error) {
	if c.pool == "" {
		return nil, ErrNoPool
	}

	var resp PoolResponse
	if err := c.get(ctx, "/v1/pools/"+url.PathEscape(c.pool), nil, &resp); err != nil {
		return nil, fmt.Errorf("get pool %s: %w", c.pool, err)
	}

	pool, err := resp.Pool.ToPool()
	if err != nil {
		return nil, fmt.Errorf("get pool %s: %w", c.pool, err)
	}
	return &pool, nil
}

// GetPrice fetches the current price of the configured pool.
func (c *Client) GetPrice(ctx context.Context) (float64, error) {
	if c.pool == "" {
		return 0, ErrNoPool
	}

	var resp PriceResponse
	if err := c.get(ctx, "/v1/pools/"+url.PathEscape(c.pool)+"/price", nil, &resp); err != nil {
		return 0, fmt.Errorf("get price %s: %w", c.pool, err)
	}

	price, err := parseDecimal("price", resp.Price)
	if err != nil {
		return 0, fmt.Errorf("get price %s: %w", c.pool, err)
	}
	if price == 0 {
		return 0, fmt.Errorf("get price %s: price: zero value", c.pool)
	}
	return price, nil
}

// GetLiquidity fetches the liquidity of the configured pool.
func (c *Client) GetLiquidity(ctx context.Context) (float64, error) {
	pool, err := c.GetPool(ctx)
	if err != nil {
		return 0, err
	}
	return pool.Liquidity, nil
}
