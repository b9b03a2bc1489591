// Package priceoracle implements the Price Oracle (C3): rate-limited
// spot-price refresh and per-(shape,zone) backoff tracking.
package priceoracle

import (
	"context"
	"time"

	"github.com/rvalieris/hyperdrive/pkg/cache"
	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/logger"
)

// refreshDelta gates refresh behind timedLock("spot_prices", 30min)
// per §4.3.
const refreshDelta = 30 * time.Minute

// PriceOracle is the Price Oracle component.
type PriceOracle struct {
	cache   *cache.Cache
	clients *cloudapi.Clients
}

func New(c *cache.Cache, clients *cloudapi.Clients) *PriceOracle {
	return &PriceOracle{cache: c, clients: clients}
}

// Refresh queries spot price history for every cached shape and
// upserts the latest-per-(shape,zone) quote, gated by a TimedLock so
// overlapping CLI invocations collapse into one cloud call (§4.3).
func (p *PriceOracle) Refresh(ctx context.Context) error {
	acquired, err := p.cache.TimedLock("spot_prices", refreshDelta)
	if err != nil {
		return err
	}
	if !acquired {
		logger.Debug("spot price refresh skipped: rate-limited")
		return nil
	}

	shapes, err := p.cache.ListInstanceShapes()
	if err != nil {
		return err
	}
	if len(shapes) == 0 {
		return nil
	}
	names := make([]string, len(shapes))
	for i, s := range shapes {
		names[i] = s.Shape
	}

	observations, err := p.clients.DescribeLatestSpotPrices(ctx, names)
	if err != nil {
		return err
	}

	latest := reduceToLatest(observations)
	quotes := make([]cache.SpotQuote, 0, len(latest))
	for key, obs := range latest {
		quotes = append(quotes, cache.SpotQuote{Shape: key.shape, AZ: key.az, Price: obs.Price})
	}
	logger.Infof("refreshed %d spot price quotes", len(quotes))
	return p.cache.UpsertSpotQuotes(quotes)
}

type shapeAZ struct{ shape, az string }

// reduceToLatest keeps, for each (shape,az), the observation with the
// most recent timestamp — §4.3: "reduce to a map keyed by (shape,
// zone) taking the most recent timestamp".
func reduceToLatest(obs []cloudapi.SpotPriceObservation) map[shapeAZ]cloudapi.SpotPriceObservation {
	latest := map[shapeAZ]cloudapi.SpotPriceObservation{}
	for _, o := range obs {
		key := shapeAZ{o.Shape, o.AZ}
		if cur, ok := latest[key]; !ok || o.Timestamp.After(cur.Timestamp) {
			latest[key] = o
		}
	}
	return latest
}

// Backoff increments the backoff counter for (shape,az) by 1 — called
// by the Lifecycle Tracker on a capacity-shortage or preemption
// observation (§4.3, §4.6).
func (p *PriceOracle) Backoff(shape, az string) error {
	return p.cache.Backoff(shape, az)
}
