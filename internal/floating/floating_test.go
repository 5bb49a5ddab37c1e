package floating

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsDeterministic(t *testing.T) {
	a := Seed(DefaultLabels)
	b := Seed(DefaultLabels)
	assert.Equal(t, a, b)

	assert.Equal(t, Placement{
		Label: DefaultLabels[0], X: 10, Y: 10, Size: 18, Duration: 18, Delay: 0, Rotation: -10,
	}, a[0])
	i := 6
	assert.Equal(t, Placement{
		Label: DefaultLabels[i], X: 58, Y: 64, Size: 21, Duration: 28, Delay: float64(i) * 0.8, Rotation: -6,
	}, a[i])
}

func TestRandomizeStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		for i, p := range Randomize(DefaultLabels, rng) {
			assert.Equal(t, DefaultLabels[i], p.Label)
			assert.GreaterOrEqual(t, p.X, 5.0)
			assert.Less(t, p.X, 95.0)
			assert.GreaterOrEqual(t, p.Y, 5.0)
			assert.Less(t, p.Y, 95.0)
			assert.GreaterOrEqual(t, p.Size, 16.0)
			assert.Less(t, p.Size, 36.0)
			assert.GreaterOrEqual(t, p.Duration, 15.0)
			assert.Less(t, p.Duration, 35.0)
			assert.GreaterOrEqual(t, p.Delay, 0.0)
			assert.Less(t, p.Delay, 10.0)
			assert.GreaterOrEqual(t, p.Rotation, -10.0)
			assert.Less(t, p.Rotation, 10.0)
		}
	}
}

func TestFieldTwoPhases(t *testing.T) {
	f := NewField(DefaultLabels, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, Seeded, f.Phase())
	assert.Equal(t, Seed(DefaultLabels), f.Placements())

	require.True(t, f.Randomize())
	assert.Equal(t, Randomized, f.Phase())
	first := f.Placements()
	assert.NotEqual(t, Seed(DefaultLabels), first)

	// a second randomize is a no-op
	assert.False(t, f.Randomize())
	assert.Equal(t, first, f.Placements())
}

func TestRandomizedLayoutsDiffer(t *testing.T) {
	a := NewField(DefaultLabels, nil)
	b := NewField(DefaultLabels, nil)
	assert.Equal(t, a.Placements(), b.Placements())

	a.Randomize()
	b.Randomize()
	assert.NotEqual(t, a.Placements(), b.Placements())

	// both phases render the same labels in the same order
	for i := range DefaultLabels {
		assert.Equal(t, a.Placements()[i].Label, b.Placements()[i].Label)
	}
}

func TestFieldCopiesLabels(t *testing.T) {
	labels := []Label{{Name: "Go", Color: "#00ADD8"}}
	f := NewField(labels, nil)
	labels[0].Name = "changed"
	assert.Equal(t, "Go", f.Placements()[0].Name)
	assert.Empty(t, NewField(nil, nil).Placements())
}
