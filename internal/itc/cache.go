package itc

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/gemini-hlsw/odb-sequencer/internal/telemetry/logging"
	"github.com/gemini-hlsw/odb-sequencer/internal/telemetry/metrics"
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// Cache memoizes Client results by content-hash, collapsing concurrent
// misses for the same key into a single upstream call (spec §4.2, §5: "The
// ITC cache is shared, single-writer-per-key via singleflight").
type Cache struct {
	client     Client
	commitHash string
	lru        *lru.Cache[string, Result]
	flight     singleflight.Group
	log        logging.Logger
	metrics    *metrics.Registry
}

// Config configures a Cache.
type Config struct {
	CommitHash string
	Capacity   int
	Logger     logging.Logger
	Metrics    *metrics.Registry
}

// NewCache constructs a Cache. A zero Capacity defaults to 4096 entries.
func NewCache(client Client, cfg Config) (*Cache, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 4096
	}
	store, err := lru.New[string, Result](cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("itc: build LRU cache: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New(nil)
	}
	return &Cache{client: client, commitHash: cfg.CommitHash, lru: store, log: log, metrics: cfg.Metrics}, nil
}

// timeAndCountResult builds a Result directly from an explicit
// TimeAndCountMode, bypassing the ITC entirely (spec §4.2).
func timeAndCountResult(input Input) (Result, bool) {
	if !input.ExposureTimeMode.IsTimeAndCount() {
		return Result{}, false
	}
	return Result{
		IntegrationTime: model.IntegrationTime{
			ExposureTime:  model.TimeSpan(input.ExposureTimeMode.ExposureTimeMs * 1000),
			ExposureCount: model.NonNegInt(input.ExposureTimeMode.ExposureCount),
			Requested:     input.ExposureTimeMode.SignalToNoise,
		},
	}, true
}

func (c *Cache) call(ctx context.Context, op string, input Input, useCache bool, upstream func(context.Context, Input) (Result, error)) (Result, error) {
	if r, ok := timeAndCountResult(input); ok {
		return r, nil
	}
	key, err := fingerprint(op, input, c.commitHash)
	if err != nil {
		return Result{}, model.NewGenError(model.ErrItcError, err.Error())
	}

	if useCache {
		if v, ok := c.lru.Get(key); ok {
			c.recordHit()
			return v, nil
		}
	}
	c.recordMiss()

	v, err, _ := c.flight.Do(key, func() (any, error) {
		res, err := upstream(ctx, input)
		if err != nil {
			return Result{}, err
		}
		c.lru.Add(key, res)
		return res, nil
	})
	if err != nil {
		return Result{}, model.NewGenError(model.ErrItcError, err.Error())
	}
	return v.(Result), nil
}

func (c *Cache) recordHit() {
	if c.metrics != nil {
		c.metrics.ItcCacheHits.Inc()
	}
}

func (c *Cache) recordMiss() {
	if c.metrics != nil {
		c.metrics.ItcCacheMisses.Inc()
	}
}

// Spectroscopy computes (or fetches from cache) the spectroscopy
// integration time for input.
func (c *Cache) Spectroscopy(ctx context.Context, input Input, useCache bool) (Result, error) {
	return c.call(ctx, "spectroscopy", input, useCache, c.client.Spectroscopy)
}

// Imaging computes (or fetches from cache) the imaging integration time for
// input.
func (c *Cache) Imaging(ctx context.Context, input Input, useCache bool) (Result, error) {
	return c.call(ctx, "imaging", input, useCache, c.client.Imaging)
}

// SpectroscopyGraphs is not memoized (graph payloads are large and rarely
// re-requested identically) but still routes through a single client.
func (c *Cache) SpectroscopyGraphs(ctx context.Context, input Input) (GraphsResult, error) {
	return c.client.SpectroscopyGraphs(ctx, input)
}

// Versions reports the ITC server/data version.
func (c *Cache) Versions(ctx context.Context) (model.ItcVersions, error) {
	return c.client.Versions(ctx)
}

// Teardown releases cache resources (spec §4.2: "init at startup and
// teardown at shutdown").
func (c *Cache) Teardown() {
	c.lru.Purge()
}
