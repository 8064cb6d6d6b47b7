package oracle

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/etnz/coinfolio"
)

// Cache serves prices from Redis and asks its source only for the symbols it misses.
// It implements coinfolio.PriceOracle.
//
// Redis failures are not fatal: the cache is bypassed and the source is asked for everything.
type Cache struct {
	rdb    *redis.Client
	source coinfolio.PriceLookup
	prefix string
	ttl    time.Duration
}

// NewCache wraps source. Prices are stored under "<prefix>:price:<SYMBOL>" for ttl.
func NewCache(rdb *redis.Client, source coinfolio.PriceLookup, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "coinfolio"
	}
	return &Cache{rdb: rdb, source: source, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(symbol string) string { return c.prefix + ":price:" + symbol }

func (c *Cache) Prices(ctx context.Context, symbols []string) (map[string]coinfolio.Money, error) {
	prices := make(map[string]coinfolio.Money)
	if len(symbols) == 0 {
		return prices, nil
	}
	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = c.key(s)
	}

	missing := symbols
	cached, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		log.Warn().Err(err).Msg("price cache unavailable")
	} else {
		missing = nil
		for i, v := range cached {
			if p, ok := parseCached(v); ok {
				prices[symbols[i]] = p
				continue
			}
			missing = append(missing, symbols[i])
		}
	}
	cacheResults.WithLabelValues("hit").Add(float64(len(prices)))
	cacheResults.WithLabelValues("miss").Add(float64(len(missing)))
	if len(missing) == 0 {
		return prices, nil
	}

	fetched, err := c.source.Prices(ctx, missing)
	if err != nil {
		return nil, err
	}
	pipe := c.rdb.Pipeline()
	for s, p := range fetched {
		prices[s] = p
		pipe.Set(ctx, c.key(s), p.Decimal().String(), c.ttl)
	}
	if len(fetched) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn().Err(err).Msg("could not cache prices")
		}
	}
	return prices, nil
}

func (c *Cache) Price(ctx context.Context, symbol string) (coinfolio.Money, bool, error) {
	prices, err := c.Prices(ctx, []string{symbol})
	if err != nil {
		return coinfolio.Money{}, false, err
	}
	p, ok := prices[symbol]
	return p, ok, nil
}

// parseCached reads an MGET value, nil for a missing key.
func parseCached(v any) (coinfolio.Money, bool) {
	s, ok := v.(string)
	if !ok {
		return coinfolio.Money{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return coinfolio.Money{}, false
	}
	return coinfolio.USD(d), true
}
