package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReleaser struct{ mock.Mock }

func (m *mockReleaser) ReleaseDue(ctx context.Context, before time.Time) (int, error) {
	args := m.Called(ctx, before)
	return args.Int(0), args.Error(1)
}

type mockPurger struct{ mock.Mock }

func (m *mockPurger) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func testConfig() Config {
	return Config{
		AutoReleaseSchedule: "@hourly",
		AutoReleaseAfter:    72 * time.Hour,
		CleanupSchedule:     "@daily",
		NotificationTTL:     720 * time.Hour,
	}
}

func TestNew_InvalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.AutoReleaseSchedule = "not a schedule"

	_, err := New(cfg, &mockReleaser{}, &mockPurger{})
	require.Error(t, err)
}

func TestNew_RegistersOnlyProvidedJobs(t *testing.T) {
	s, err := New(testConfig(), &mockReleaser{}, nil)
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestRunAutoRelease_UsesCutoff(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	releaser := &mockReleaser{}
	releaser.On("ReleaseDue", mock.Anything, now.Add(-72*time.Hour)).Return(2, nil)

	s, err := New(testConfig(), releaser, &mockPurger{})
	require.NoError(t, err)
	s.now = func() time.Time { return now }

	require.NoError(t, s.runAutoRelease(context.Background()))
	releaser.AssertExpectations(t)
}

func TestRunCleanup_PropagatesError(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	purger := &mockPurger{}
	purger.On("PurgeOlderThan", mock.Anything, now.Add(-720*time.Hour)).Return(int64(0), errors.New("db down"))

	s, err := New(testConfig(), nil, purger)
	require.NoError(t, err)
	s.now = func() time.Time { return now }

	assert.Error(t, s.runCleanup(context.Background()))
}

func TestWrap_RecoversPanic(t *testing.T) {
	s, err := New(testConfig(), nil, nil)
	require.NoError(t, err)

	job := s.wrap("panicky", func(ctx context.Context) error { panic("boom") })
	assert.NotPanics(t, job)
}

func TestStop_ReturnsWhenIdle(t *testing.T) {
	s, err := New(testConfig(), nil, nil)
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
