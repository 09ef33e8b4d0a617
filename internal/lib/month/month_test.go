package month

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "plain month",
			start:  date(2024, time.January, 15),
			months: 1,
			want:   date(2024, time.February, 15),
		},
		{
			name:   "clamps to leap february",
			start:  date(2024, time.January, 31),
			months: 1,
			want:   date(2024, time.February, 29),
		},
		{
			name:   "clamps to non-leap february",
			start:  date(2023, time.January, 31),
			months: 1,
			want:   date(2023, time.February, 28),
		},
		{
			name:   "year rollover",
			start:  date(2024, time.November, 30),
			months: 3,
			want:   date(2025, time.February, 28),
		},
		{
			name:   "twelve months keeps the day",
			start:  date(2024, time.March, 31),
			months: 12,
			want:   date(2025, time.March, 31),
		},
		{
			name:   "zero months is identity",
			start:  date(2024, time.June, 10),
			months: 0,
			want:   date(2024, time.June, 10),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.start, tt.months)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestDaysLeft(t *testing.T) {
	now := date(2024, time.May, 10)

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"three full days", date(2024, time.May, 13), 3},
		{"partial day rounds up", now.Add(36 * time.Hour), 2},
		{"already past", date(2024, time.May, 1), 0},
		{"same instant", now, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysLeft(now, tt.deadline))
		})
	}
}
