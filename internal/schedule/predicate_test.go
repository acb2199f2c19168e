package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldSend(t *testing.T) {
	loc := time.UTC
	everyHour := func() *Schedule {
		return &Schedule{Hour: -1, Day: -1}
	}

	tests := []struct {
		name     string
		schedule *Schedule
		now      time.Time
		want     bool
	}{
		{
			name:     "every hour fires any time",
			schedule: everyHour(),
			now:      time.Date(2018, 6, 30, 13, 15, 0, 0, loc),
			want:     true,
		},
		{
			name:     "hour match",
			schedule: &Schedule{Hour: 10, Day: -1},
			now:      time.Date(2018, 6, 30, 10, 45, 0, 0, loc),
			want:     true,
		},
		{
			name:     "hour mismatch",
			schedule: &Schedule{Hour: 10, Day: -1},
			now:      time.Date(2018, 6, 30, 9, 59, 0, 0, loc),
			want:     false,
		},
		{
			name:     "day of month match",
			schedule: &Schedule{Hour: -1, Day: 30},
			now:      time.Date(2018, 6, 30, 8, 0, 0, 0, loc),
			want:     true,
		},
		{
			name:     "day of month mismatch",
			schedule: &Schedule{Hour: -1, Day: 1},
			now:      time.Date(2018, 6, 30, 8, 0, 0, 0, loc),
			want:     false,
		},
		{
			name:     "week day match",
			schedule: &Schedule{Hour: -1, Day: -1, WeekDays: []string{"Saturday"}},
			now:      time.Date(2018, 6, 30, 8, 0, 0, 0, loc), // a Saturday
			want:     true,
		},
		{
			name:     "week day mismatch",
			schedule: &Schedule{Hour: -1, Day: -1, WeekDays: []string{"Monday", "Wednesday"}},
			now:      time.Date(2018, 6, 30, 8, 0, 0, 0, loc),
			want:     false,
		},
		{
			name: "already sent this hour",
			schedule: &Schedule{
				Hour: -1, Day: -1,
				LastSent: timePtr(time.Date(2018, 6, 30, 10, 5, 0, 0, loc)),
			},
			now:  time.Date(2018, 6, 30, 10, 55, 0, 0, loc),
			want: false,
		},
		{
			name: "sent last hour",
			schedule: &Schedule{
				Hour: -1, Day: -1,
				LastSent: timePtr(time.Date(2018, 6, 30, 9, 59, 0, 0, loc)),
			},
			now:  time.Date(2018, 6, 30, 10, 0, 0, 0, loc),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldSend(tt.schedule, tt.now, loc))
		})
	}
}

// A daily schedule with hour=10 fires exactly once at the 10 o'clock hour
// and never again that day once the last-sent timestamp advances.
func TestShouldSendDailyFiresOncePerDay(t *testing.T) {
	loc := time.UTC
	lastSent := time.Date(2018, 6, 30, 9, 0, 0, 0, loc)
	schedule := &Schedule{Hour: 10, Day: -1, LastSent: &lastSent}

	fired := 0
	for hour := 0; hour < 24; hour++ {
		now := time.Date(2018, 6, 30, hour, 30, 0, 0, loc)
		if !ShouldSend(schedule, now, loc) {
			continue
		}
		fired++
		assert.Equal(t, 10, hour)

		sent := now
		schedule.LastSent = &sent
		assert.False(t, ShouldSend(schedule, now, loc), "repeat call after send must be false")
	}
	assert.Equal(t, 1, fired)
}

func TestShouldSendUsesLocalHour(t *testing.T) {
	sydney := time.FixedZone("AEST", 10*3600)
	schedule := &Schedule{Hour: 10, Day: -1}

	// 00:30 UTC is 10:30 in the schedule's timezone.
	now := time.Date(2018, 6, 30, 0, 30, 0, 0, time.UTC)
	assert.True(t, ShouldSend(schedule, now, sydney))
	assert.False(t, ShouldSend(schedule, now, time.UTC))
}

func timePtr(t time.Time) *time.Time { return &t }
