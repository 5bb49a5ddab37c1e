package scrollspy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajemaa/portfolio/internal/clock"
)

const frame = 16 * time.Millisecond

var sections = []string{"about", "experience", "education"}

func newTracker(t *testing.T) (*Tracker, *clock.Fake, *[]State) {
	t.Helper()
	fake := clock.NewFake(time.Unix(0, 0))
	tr := New(sections, ClockFrames{Clock: fake, Interval: frame}, Options{})
	var seen []State
	tr.OnChange(func(s State) { seen = append(seen, s) })
	t.Cleanup(tr.Close)
	return tr, fake, &seen
}

func TestActiveSectionPicksLastPassed(t *testing.T) {
	tops := map[string]int{"about": 0, "experience": 800, "education": 1600}
	assert.Equal(t, "experience", ActiveSection(sections, tops, 850, 100))
	assert.Equal(t, "about", ActiveSection(sections, tops, 0, 100))
	assert.Equal(t, "education", ActiveSection(sections, tops, 1500, 100))
	// exactly at the threshold counts
	assert.Equal(t, "experience", ActiveSection(sections, tops, 700, 100))
	assert.Equal(t, "about", ActiveSection(sections, tops, 699, 100))
}

func TestActiveSectionUnset(t *testing.T) {
	tops := map[string]int{"about": 400, "experience": 800}
	assert.Equal(t, "", ActiveSection(sections, tops, 0, 100))
	assert.Equal(t, "", ActiveSection(sections, nil, 5000, 100))
}

func TestActiveSectionTieGoesToLaterSection(t *testing.T) {
	// both tops sit inside the threshold window during a fast scroll
	tops := map[string]int{"about": 0, "experience": 40, "education": 90}
	assert.Equal(t, "education", ActiveSection(sections, tops, 0, 100))

	// document order decides, not the map or the top values
	tops = map[string]int{"about": 0, "experience": 50, "education": 50}
	assert.Equal(t, "education", ActiveSection(sections, tops, 0, 100))
}

func TestActiveSectionSkipsMissing(t *testing.T) {
	tops := map[string]int{"about": 0, "education": 1600}
	assert.Equal(t, "about", ActiveSection(sections, tops, 850, 100))
}

func TestTrackerReportsActiveSection(t *testing.T) {
	tr, fake, seen := newTracker(t)
	tr.SetLayout(map[string]int{"about": 0, "experience": 800, "education": 1600, "unknown": 10})
	tr.Scroll(850)
	fake.Advance(frame)

	require.Len(t, *seen, 1)
	assert.Equal(t, State{Offset: 850, Active: "experience", Scrolled: true}, (*seen)[0])
	assert.Equal(t, (*seen)[0], tr.State())
	assert.NotContains(t, tr.Layout(), "unknown")
}

func TestTrackerThrottlesEventStorm(t *testing.T) {
	tr, fake, seen := newTracker(t)
	tr.SetLayout(map[string]int{"about": 0, "experience": 800, "education": 1600})

	for y := 0; y < 1000; y++ {
		tr.Scroll(y * 2)
	}
	assert.Empty(t, *seen)
	assert.Equal(t, 1, fake.Pending())

	fake.Advance(frame)
	require.Len(t, *seen, 1)
	assert.Equal(t, 1998, (*seen)[0].Offset)
	assert.Equal(t, "education", (*seen)[0].Active)

	// an idle frame produces nothing
	fake.Advance(10 * frame)
	assert.Len(t, *seen, 1)
	assert.Equal(t, 1, tr.Updates())

	// storms spread over three frames give three updates
	for f := 0; f < 3; f++ {
		for i := 0; i < 50; i++ {
			tr.Scroll(100 + i)
		}
		fake.Advance(frame)
	}
	assert.Len(t, *seen, 4)
}

func TestTrackerScrolledFlagAndClamp(t *testing.T) {
	tr, fake, _ := newTracker(t)
	tr.Scroll(-40)
	fake.Advance(frame)
	assert.Equal(t, State{}, tr.State())

	tr.Scroll(50)
	fake.Advance(frame)
	assert.False(t, tr.State().Scrolled)

	tr.Scroll(51)
	fake.Advance(frame)
	assert.True(t, tr.State().Scrolled)
}

func TestTrackerCloseCancelsFrame(t *testing.T) {
	tr, fake, seen := newTracker(t)
	tr.Scroll(300)
	tr.Close()
	assert.Equal(t, 0, fake.Pending())

	tr.Scroll(400)
	tr.SetLayout(map[string]int{"about": 0})
	fake.Advance(time.Second)
	assert.Empty(t, *seen)
	assert.Equal(t, 0, tr.Updates())
}

func TestParallax(t *testing.T) {
	off := Offsets(1000, BackgroundLayers)
	assert.InDelta(t, 20.0, off["labels"], 1e-9)
	assert.InDelta(t, 50.0, off["orb-cyan"], 1e-9)
	assert.InDelta(t, -30.0, off["orb-violet"], 1e-9)
	assert.InDelta(t, 80.0, off["orb-pink"], 1e-9)
	assert.Equal(t, 0.0, Translate(0, 0.05))
}

func TestHeroTransform(t *testing.T) {
	assert.Equal(t, HeroTransform{Y: 0, Opacity: 1}, Hero(0, 800))
	assert.Equal(t, HeroTransform{Y: 50, Opacity: 0.5}, Hero(200, 800))
	assert.Equal(t, HeroTransform{Y: 100, Opacity: 0}, Hero(400, 800))
	assert.Equal(t, HeroTransform{Y: 200, Opacity: 0}, Hero(5000, 800))
	assert.Equal(t, HeroTransform{Opacity: 1}, Hero(100, 0))
}
