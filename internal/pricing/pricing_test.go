package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeBreakdown_WeddingOf150(t *testing.T) {
	b := ComputeBreakdown(150000, 150, nil, 30)

	assert.Equal(t, int64(225000), b.TotalAmount)
	assert.Equal(t, int64(67500), b.AdvanceAmount)
	assert.Equal(t, int64(157500), b.RemainingAmount)
	assert.Equal(t, 30, b.AdvancePercentage)
}

func TestComputeBreakdown_SmallPartiesPayBasePrice(t *testing.T) {
	for g := 1; g <= 100; g++ {
		b := ComputeBreakdown(80000, g, nil, DefaultAdvancePercentage)
		assert.Equal(t, int64(80000), b.TotalAmount, "guestCount=%d", g)
	}
}

func TestComputeBreakdown_ScalesAboveBaseline(t *testing.T) {
	var prev int64
	for g := 101; g <= 1500; g++ {
		b := ComputeBreakdown(99999, g, nil, DefaultAdvancePercentage)
		want := roundDiv(99999*int64(g), 100)
		assert.Equal(t, want, b.TotalAmount, "guestCount=%d", g)
		assert.GreaterOrEqual(t, b.TotalAmount, prev, "monotonic at guestCount=%d", g)
		prev = b.TotalAmount
	}
}

func TestComputeBreakdown_NoRoundingLeak(t *testing.T) {
	for _, total := range []int64{0, 1, 7, 33, 99999, 123457, 225001} {
		for pct := 0; pct <= 100; pct++ {
			adv, rem := Split(total, pct)
			assert.Equal(t, total, adv+rem, "total=%d pct=%d", total, pct)
			assert.GreaterOrEqual(t, rem, int64(0))
		}
	}
}

func TestComputeBreakdown_OverrideReplacesBase(t *testing.T) {
	override := int64(200000)
	b := ComputeBreakdown(150000, 50, &override, 30)

	assert.Equal(t, int64(200000), b.BasePrice)
	assert.Equal(t, int64(200000), b.TotalAmount)
	assert.Equal(t, int64(60000), b.AdvanceAmount)
}

func TestComputeBreakdown_RoundsHalfUp(t *testing.T) {
	// 333 * 1.5 = 499.5
	b := ComputeBreakdown(333, 150, nil, 0)
	assert.Equal(t, int64(500), b.TotalAmount)
	assert.Equal(t, int64(0), b.AdvanceAmount)
}

func TestComputeBreakdown_ProgrammerErrorsPanic(t *testing.T) {
	assert.Panics(t, func() { ComputeBreakdown(1000, 0, nil, 30) })
	assert.Panics(t, func() { ComputeBreakdown(1000, -5, nil, 30) })
	assert.Panics(t, func() { ComputeBreakdown(1000, 10, nil, 101) })
	assert.Panics(t, func() { ComputeBreakdown(1000, 10, nil, -1) })
}

func TestPercent_Commission(t *testing.T) {
	assert.Equal(t, int64(10000), Percent(100000, 10))
	assert.Equal(t, int64(0), Percent(100000, 0))
}
