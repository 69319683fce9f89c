package itc

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

type countingClient struct {
	calls int32
	mu    sync.Mutex
	delay chan struct{}
}

func (c *countingClient) Spectroscopy(ctx context.Context, input Input) (Result, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.delay != nil {
		<-c.delay
	}
	return Result{IntegrationTime: model.IntegrationTime{ExposureTime: 1000, ExposureCount: 1}}, nil
}

func (c *countingClient) Imaging(ctx context.Context, input Input) (Result, error) {
	atomic.AddInt32(&c.calls, 1)
	return Result{IntegrationTime: model.IntegrationTime{ExposureTime: 2000, ExposureCount: 1}}, nil
}

func (c *countingClient) SpectroscopyGraphs(ctx context.Context, input Input) (GraphsResult, error) {
	return GraphsResult{}, nil
}

func (c *countingClient) Versions(ctx context.Context) (model.ItcVersions, error) {
	return model.ItcVersions{}, nil
}

type failingClient struct{}

func (failingClient) Spectroscopy(ctx context.Context, input Input) (Result, error) {
	return Result{}, assertErr
}
func (failingClient) Imaging(ctx context.Context, input Input) (Result, error) {
	return Result{}, assertErr
}
func (failingClient) SpectroscopyGraphs(ctx context.Context, input Input) (GraphsResult, error) {
	return GraphsResult{}, assertErr
}
func (failingClient) Versions(ctx context.Context) (model.ItcVersions, error) {
	return model.ItcVersions{}, assertErr
}

var assertErr = assertError("itc unreachable")

type assertError string

func (e assertError) Error() string { return string(e) }

func testInput() Input {
	return Input{
		Asterism: []model.AsterismMember{{TargetId: "t-1", Band: "V"}},
		Mode:     model.ObservingMode{Tag: model.ModeGmosNorthLongSlit, Grating: "B600"},
		ExposureTimeMode: model.ExposureTimeMode{
			Tag:           model.SignalToNoiseTag,
			SignalToNoise: 100,
		},
	}
}

func TestCacheSpectroscopyCachesByFingerprint(t *testing.T) {
	client := &countingClient{}
	c, err := NewCache(client, Config{CommitHash: "abc123"})
	require.NoError(t, err)

	input := testInput()
	r1, err := c.Spectroscopy(context.Background(), input, true)
	require.NoError(t, err)
	r2, err := c.Spectroscopy(context.Background(), input, true)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&client.calls), "second call should hit cache")
}

func TestCacheSpectroscopyBypassesCacheWhenDisabled(t *testing.T) {
	client := &countingClient{}
	c, err := NewCache(client, Config{CommitHash: "abc123"})
	require.NoError(t, err)

	input := testInput()
	_, err = c.Spectroscopy(context.Background(), input, false)
	require.NoError(t, err)
	_, err = c.Spectroscopy(context.Background(), input, false)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&client.calls))
}

func TestCacheFingerprintVariesWithCommitHash(t *testing.T) {
	client := &countingClient{}
	c1, err := NewCache(client, Config{CommitHash: "rev-1"})
	require.NoError(t, err)
	c2, err := NewCache(client, Config{CommitHash: "rev-2"})
	require.NoError(t, err)

	input := testInput()
	_, err = c1.Spectroscopy(context.Background(), input, true)
	require.NoError(t, err)
	_, err = c2.Spectroscopy(context.Background(), input, true)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&client.calls), "distinct commit hashes must not share cache entries")
}

func TestCacheConcurrentMissesCollapseViaSingleflight(t *testing.T) {
	client := &countingClient{delay: make(chan struct{})}
	c, err := NewCache(client, Config{CommitHash: "abc123"})
	require.NoError(t, err)

	input := testInput()
	var wg sync.WaitGroup
	results := make([]Result, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Spectroscopy(context.Background(), input, true)
		}(i)
	}
	close(client.delay)
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&client.calls), "concurrent misses for the same key must collapse to one upstream call")
}

func TestCacheTimeAndCountBypassesItcEntirely(t *testing.T) {
	client := &countingClient{}
	c, err := NewCache(client, Config{CommitHash: "abc123"})
	require.NoError(t, err)

	input := testInput()
	input.ExposureTimeMode = model.ExposureTimeMode{
		Tag:            model.TimeAndCountTag,
		ExposureTimeMs: 5000,
		ExposureCount:  4,
	}

	r, err := c.Spectroscopy(context.Background(), input, true)
	require.NoError(t, err)
	assert.EqualValues(t, 5_000_000, r.IntegrationTime.ExposureTime)
	assert.EqualValues(t, 4, r.IntegrationTime.ExposureCount)
	assert.Zero(t, atomic.LoadInt32(&client.calls), "time-and-count mode must never call the ITC")
}

func TestCacheWrapsUpstreamFailureAsItcError(t *testing.T) {
	c, err := NewCache(failingClient{}, Config{CommitHash: "abc123"})
	require.NoError(t, err)

	_, err = c.Spectroscopy(context.Background(), testInput(), true)
	require.Error(t, err)

	var genErr *model.GenError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, model.ErrItcError, genErr.Tag)
	assert.True(t, genErr.IsTransient())
}
