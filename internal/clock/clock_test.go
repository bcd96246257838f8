package clock_test

import (
	"testing"
	"time"

	"github.com/AndrewDonelson/gridcodec/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestMockClock_Set(t *testing.T) {
	clk := clock.NewMock(time.Time{})
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clk.Set(ts)
	assert.Equal(t, ts, clk.Now())
}

func TestMockClock_Advance(t *testing.T) {
	clk := clock.NewMock(time.Time{})
	before := clk.Now()
	clk.Advance(10 * time.Second)
	assert.Equal(t, 10*time.Second, clock.Since(clk, before))
}

func TestRealClock(t *testing.T) {
	clk := clock.Real{}
	before := time.Now()
	got := clk.Now()
	after := time.Now()
	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}
