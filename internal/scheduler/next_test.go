package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func iv(sh, sm, eh, em int) *types.Interval {
	return &types.Interval{Start: types.Time{Hour: sh, Minute: sm}, End: types.Time{Hour: eh, Minute: em}}
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func TestNextRun(t *testing.T) {
	task := &types.NetworkTask{Interval: 15}
	tests := []struct {
		name      string
		now       time.Time
		intervals []*types.Interval
		want      time.Time
	}{
		{name: "no intervals", now: at(10, 0), want: at(10, 15)},
		{name: "candidate outside interval", now: at(10, 0), intervals: []*types.Interval{iv(12, 0, 13, 0)}, want: at(10, 15)},
		{name: "candidate inside interval", now: at(11, 50), intervals: []*types.Interval{iv(12, 0, 13, 0)}, want: at(13, 0)},
		{name: "interval end is exclusive", now: at(12, 45), intervals: []*types.Interval{iv(12, 0, 13, 0)}, want: at(13, 0)},
		{
			name:      "interval spanning midnight",
			now:       at(23, 50),
			intervals: []*types.Interval{iv(22, 0, 6, 0)},
			want:      time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC),
		},
		{
			name:      "touching intervals are walked",
			now:       at(21, 50),
			intervals: []*types.Interval{iv(22, 0, 23, 0), iv(23, 0, 1, 0)},
			want:      time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextRun(task, tt.now, tt.intervals))
		})
	}
}

func TestFirstRun(t *testing.T) {
	now := at(10, 0)
	tests := []struct {
		name string
		last time.Time
		want time.Time
	}{
		{name: "never ran", want: now},
		{name: "due in the future", last: at(9, 50), want: at(10, 5)},
		{name: "overdue", last: at(8, 0), want: now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &types.NetworkTask{Interval: 15, LastScheduled: tt.last}
			assert.Equal(t, tt.want, firstRun(task, now, nil))
		})
	}

	t.Run("suspended start", func(t *testing.T) {
		task := &types.NetworkTask{Interval: 15}
		assert.Equal(t, at(11, 0), firstRun(task, now, []*types.Interval{iv(9, 30, 11, 0)}))
	})
}
