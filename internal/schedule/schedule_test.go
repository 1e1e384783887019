package schedule

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/term-dates/internal/logger"
)

func sydney(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	return loc
}

func TestNextRun(t *testing.T) {
	loc := sydney(t)

	tests := []struct {
		name      string
		now       time.Time
		want      time.Time
		wantDelay time.Duration
	}{
		{
			name:      "before the hour fires today",
			now:       time.Date(2025, time.June, 10, 2, 59, 0, 0, loc),
			want:      time.Date(2025, time.June, 10, 3, 0, 0, 0, loc),
			wantDelay: time.Minute,
		},
		{
			name:      "exactly on the hour fires tomorrow",
			now:       time.Date(2025, time.June, 10, 3, 0, 0, 0, loc),
			want:      time.Date(2025, time.June, 11, 3, 0, 0, 0, loc),
			wantDelay: 24 * time.Hour,
		},
		{
			name:      "after the hour fires tomorrow",
			now:       time.Date(2025, time.June, 10, 15, 30, 0, 0, loc),
			want:      time.Date(2025, time.June, 11, 3, 0, 0, 0, loc),
			wantDelay: 11*time.Hour + 30*time.Minute,
		},
		{
			name:      "daylight saving starts overnight",
			now:       time.Date(2025, time.October, 4, 12, 0, 0, 0, loc),
			want:      time.Date(2025, time.October, 5, 3, 0, 0, 0, loc),
			wantDelay: 14 * time.Hour,
		},
		{
			name:      "daylight saving ends overnight",
			now:       time.Date(2025, time.April, 5, 12, 0, 0, 0, loc),
			want:      time.Date(2025, time.April, 6, 3, 0, 0, 0, loc),
			wantDelay: 16 * time.Hour,
		},
		{
			name:      "end of month rolls over",
			now:       time.Date(2025, time.January, 31, 23, 0, 0, 0, loc),
			want:      time.Date(2025, time.February, 1, 3, 0, 0, 0, loc),
			wantDelay: 4 * time.Hour,
		},
		{
			name:      "input in another zone",
			now:       time.Date(2025, time.June, 9, 16, 0, 0, 0, time.UTC), // 02:00 in Sydney
			want:      time.Date(2025, time.June, 10, 3, 0, 0, 0, loc),
			wantDelay: time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRun(tt.now, 3, loc)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.Equal(t, tt.wantDelay, got.Sub(tt.now))
			assert.Equal(t, 3, got.In(loc).Hour())
		})
	}
}

func TestNew_Validation(t *testing.T) {
	loc := sydney(t)

	_, err := New(-1, loc)
	assert.Error(t, err)
	_, err = New(24, loc)
	assert.Error(t, err)
	_, err = New(3, nil)
	assert.Error(t, err)

	s, err := New(0, loc)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

// fakeClock jumps forward by the requested delay whenever a timer is created
type fakeClock struct {
	now    time.Time
	delays []time.Duration
	lag    time.Duration // wall clock falls behind the timer by this much per wait
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.delays = append(c.delays, d)
	c.now = c.now.Add(d - c.lag)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func TestScheduler_Run(t *testing.T) {
	loc := sydney(t)
	clock := &fakeClock{now: time.Date(2025, time.October, 3, 12, 0, 0, 0, loc)}

	s, err := New(3, loc,
		WithClock(clock.Now, clock.After),
		WithLogger(logger.New(logger.LevelDebug, io.Discard)),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran []time.Time
	err = s.Run(ctx, func(context.Context) {
		ran = append(ran, clock.Now())
		if len(ran) == 3 {
			cancel()
		}
	})
	assert.True(t, errors.Is(err, context.Canceled))

	want := []time.Time{
		time.Date(2025, time.October, 4, 3, 0, 0, 0, loc),
		time.Date(2025, time.October, 5, 3, 0, 0, 0, loc),
		time.Date(2025, time.October, 6, 3, 0, 0, 0, loc),
	}
	require.Len(t, ran, len(want))
	for i := range want {
		assert.True(t, ran[i].Equal(want[i]), "run %d at %s, want %s", i, ran[i], want[i])
	}
	// The night daylight saving starts is an hour short.
	assert.Equal(t, []time.Duration{15 * time.Hour, 23 * time.Hour, 24 * time.Hour}, clock.delays)
}

func TestScheduler_Run_LaggingWallClock(t *testing.T) {
	loc := sydney(t)
	clock := &fakeClock{now: time.Date(2025, time.October, 3, 12, 0, 0, 0, loc), lag: time.Second}

	s, err := New(3, loc,
		WithClock(clock.Now, clock.After),
		WithLogger(logger.New(logger.LevelDebug, io.Discard)),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var days []int
	err = s.Run(ctx, func(context.Context) {
		days = append(days, clock.Now().Day())
		if len(days) == 3 {
			cancel()
		}
	})
	assert.True(t, errors.Is(err, context.Canceled))

	// The timer fires while the wall clock still reads 02:59:59, one run per day.
	assert.Equal(t, []int{4, 5, 6}, days)
	for _, d := range clock.delays[1:] {
		assert.Greater(t, d, 23*time.Hour)
	}
}

func TestScheduler_RunSurvivesPanic(t *testing.T) {
	loc := sydney(t)
	clock := &fakeClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, loc)}
	s, err := New(3, loc,
		WithClock(clock.Now, clock.After),
		WithLogger(logger.New(logger.LevelDebug, io.Discard)),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err = s.Run(ctx, func(context.Context) {
		calls++
		if calls == 2 {
			cancel()
			return
		}
		panic("job failed")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestDaily_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Daily(ctx, 3, sydney(t), func(context.Context) {
		t.Fatal("job should not run")
	}, WithLogger(logger.New(logger.LevelDebug, io.Discard)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDaily_InvalidHour(t *testing.T) {
	err := Daily(context.Background(), 25, time.UTC, func(context.Context) {})
	assert.Error(t, err)
}
