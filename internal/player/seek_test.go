package player

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeekFraction_MiddleOfTrack(t *testing.T) {
	frac, ok := SeekFraction(100, Rect{Left: 0, Width: 200})
	require.True(t, ok)
	assert.Equal(t, 0.5, frac)
}

func TestSeekFraction_ClampsOutsideTrack(t *testing.T) {
	track := Rect{Left: 40, Width: 100}

	frac, ok := SeekFraction(-500, track)
	require.True(t, ok)
	assert.Equal(t, 0.0, frac)

	frac, ok = SeekFraction(1e6, track)
	require.True(t, ok)
	assert.Equal(t, 1.0, frac)

	frac, ok = SeekFraction(math.Inf(1), track)
	require.True(t, ok)
	assert.Equal(t, 1.0, frac)
}

func TestSeekFraction_RejectsTrackWithoutLayout(t *testing.T) {
	for _, track := range []Rect{
		{Left: 0, Width: 0},
		{Left: 10, Width: -5},
		{Left: 0, Width: math.NaN()},
		{Left: math.Inf(-1), Width: 100},
	} {
		frac, ok := SeekFraction(50, track)
		assert.False(t, ok, "track %+v", track)
		assert.Equal(t, 0.0, frac)
	}

	_, ok := SeekFraction(math.NaN(), Rect{Width: 100})
	assert.False(t, ok)
}

func TestSeekFraction_BoundedAndMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		track := Rect{Left: rng.Float64()*1000 - 500, Width: rng.Float64()*800 + 0.01}

		xs := make([]float64, 50)
		for j := range xs {
			xs[j] = rng.Float64()*3000 - 1500
		}
		sort.Float64s(xs)

		prev := -1.0
		for _, x := range xs {
			frac, ok := SeekFraction(x, track)
			require.True(t, ok)
			require.GreaterOrEqual(t, frac, 0.0)
			require.LessOrEqual(t, frac, 1.0)
			require.GreaterOrEqual(t, frac, prev, "x=%v track=%+v", x, track)
			prev = frac
		}
	}
}

func TestProgress(t *testing.T) {
	p, ok := Progress(25, 100)
	require.True(t, ok)
	assert.Equal(t, 0.25, p)

	p, ok = Progress(120, 100)
	require.True(t, ok)
	assert.Equal(t, 1.0, p)

	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, ok := Progress(10, d)
		assert.False(t, ok, "duration %v", d)
	}

	assert.Equal(t, 50.0, Percent(30, 60))
	assert.Equal(t, 0.0, Percent(30, 0))
}
