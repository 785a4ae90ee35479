package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/lamngoc/student-portal/pkg/errors"
)

type fakeCounter struct {
	total int
	err   error
	calls int
}

func (f *fakeCounter) Count(ctx context.Context) (int, error) {
	f.calls++
	return f.total, f.err
}

type fakeCache struct {
	values  map[string][]byte
	getErr  error
	lastTTL time.Duration
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = raw
	f.lastTTL = ttl
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.values, key)
	return nil
}

func TestDashboardServiceSummaryMissThenHit(t *testing.T) {
	counter := &fakeCounter{total: 7}
	cache := newFakeCache()
	svc := NewDashboardService(counter, cache, zap.NewNop(), 5*time.Minute)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, summary.TotalStudents)
	assert.Equal(t, 1, counter.calls)
	assert.Equal(t, 5*time.Minute, cache.lastTTL)

	// second call is served from the cache
	summary, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, summary.TotalStudents)
	assert.Equal(t, 1, counter.calls)
}

func TestDashboardServiceSummaryCacheFaultFallsThrough(t *testing.T) {
	counter := &fakeCounter{total: 3}
	cache := newFakeCache()
	cache.getErr = errors.New("redis timeout")
	svc := NewDashboardService(counter, cache, zap.NewNop(), time.Minute)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalStudents)
}

func TestDashboardServiceSummaryCountError(t *testing.T) {
	svc := NewDashboardService(&fakeCounter{err: errors.New("connection reset")}, newFakeCache(), zap.NewNop(), time.Minute)

	_, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestDashboardServiceInvalidate(t *testing.T) {
	counter := &fakeCounter{total: 7}
	cache := newFakeCache()
	svc := NewDashboardService(counter, cache, zap.NewNop(), time.Minute)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)

	svc.Invalidate(context.Background())
	assert.Contains(t, cache.deleted, "dashboard:summary")

	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counter.calls)
}
