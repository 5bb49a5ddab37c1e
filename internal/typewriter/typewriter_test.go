package typewriter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajemaa/portfolio/internal/clock"
)

var testOpts = Options{
	TypingSpeed:   10 * time.Millisecond,
	DeletingSpeed: 5 * time.Millisecond,
	PauseDuration: 100 * time.Millisecond,
}

func newRecorded(t *testing.T, phrases []string, opts Options) (*Engine, *clock.Fake, *[]State) {
	t.Helper()
	fake := clock.NewFake(time.Unix(0, 0))
	e := New(phrases, opts, fake)
	var seen []State
	e.OnChange(func(s State) { seen = append(seen, s) })
	t.Cleanup(e.Stop)
	return e, fake, &seen
}

func TestStaticTextBeforeMount(t *testing.T) {
	e := New([]string{"DevOps Engineer", "Builder"}, Options{}, clock.NewFake(time.Unix(0, 0)))
	assert.Equal(t, "DevOps Engineer", e.Text())
	assert.False(t, e.State().Mounted)
	assert.Equal(t, "DevOps Engineer", Static([]string{"DevOps Engineer", "Builder"}))
	assert.Equal(t, "", Static(nil))
}

func TestDefaultsApplied(t *testing.T) {
	e := New([]string{"x"}, Options{TypingSpeed: -1}, nil)
	assert.Equal(t, Options{
		TypingSpeed:   DefaultTypingSpeed,
		DeletingSpeed: DefaultDeletingSpeed,
		PauseDuration: DefaultPauseDuration,
	}, e.Options())
}

func TestTimingOfOnePhrase(t *testing.T) {
	e, fake, seen := newRecorded(t, []string{"abc"}, testOpts)
	e.Start()
	require.Len(t, *seen, 1)
	assert.Equal(t, State{Displayed: "", Mode: Typing, Mounted: true}, (*seen)[0])

	// three typing ticks
	for i, want := range []string{"a", "ab", "abc"} {
		fake.Advance(testOpts.TypingSpeed)
		assert.Equal(t, want, e.Text(), "typing tick %d", i+1)
	}
	assert.Equal(t, PausedAtFull, e.State().Mode)

	// the pause lasts exactly PauseDuration
	fake.Advance(testOpts.PauseDuration - time.Millisecond)
	assert.Equal(t, PausedAtFull, e.State().Mode)
	fake.Advance(time.Millisecond)
	assert.Equal(t, Deleting, e.State().Mode)
	assert.Equal(t, "abc", e.Text())

	// three deleting ticks, the last wraps to the same single phrase
	for i, want := range []string{"ab", "a", ""} {
		fake.Advance(testOpts.DeletingSpeed)
		assert.Equal(t, want, e.Text(), "deleting tick %d", i+1)
	}
	st := e.State()
	assert.Equal(t, Typing, st.Mode)
	assert.Equal(t, 0, st.Index)

	// initial + 3 typed + pause end + 3 deleted
	assert.Len(t, *seen, 8)
}

func TestDisplayedIsAlwaysPrefix(t *testing.T) {
	phrases := []string{"Cloud Automation", "AWS & Kubernetes", "", "CI/CD Pipeline Builder"}
	e, fake, seen := newRecorded(t, phrases, testOpts)
	e.Start()

	for i := 0; i < 5000; i++ {
		fake.Advance(time.Millisecond)
		s := e.State()
		require.True(t, strings.HasPrefix(phrases[s.Index], s.Displayed),
			"%q is not a prefix of %q", s.Displayed, phrases[s.Index])
	}
	for _, s := range *seen {
		assert.True(t, strings.HasPrefix(phrases[s.Index], s.Displayed))
	}
}

func TestCycleRevisitsFirstPhrase(t *testing.T) {
	phrases := []string{"A", "BB", "C"}
	e, fake, seen := newRecorded(t, phrases, testOpts)
	e.Start()

	// A: 1 type + pause + 1 delete; BB: 2 + pause + 2; C: 1 + pause + 1
	total := 4*testOpts.TypingSpeed + 4*testOpts.DeletingSpeed + 3*testOpts.PauseDuration
	fake.Advance(total)

	var order []int
	for _, s := range *seen {
		if len(order) == 0 || order[len(order)-1] != s.Index {
			order = append(order, s.Index)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 0}, order)

	st := e.State()
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, Typing, st.Mode)
	assert.Equal(t, "", st.Displayed)
}

func TestEmptyPhraseIsAPause(t *testing.T) {
	e, fake, _ := newRecorded(t, []string{"", "ab"}, testOpts)
	e.Start()

	st := e.State()
	assert.Equal(t, PausedAtFull, st.Mode)
	assert.Equal(t, "", st.Displayed)

	fake.Advance(testOpts.PauseDuration)
	st = e.State()
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, Typing, st.Mode)

	fake.Advance(testOpts.TypingSpeed)
	assert.Equal(t, "a", e.Text())
}

func TestAllEmptyPhrasesDoNotSpin(t *testing.T) {
	e, fake, _ := newRecorded(t, []string{"", ""}, testOpts)
	e.Start()
	fake.Advance(testOpts.PauseDuration * 3)
	assert.Equal(t, 1, fake.Pending())
	assert.Equal(t, 1, e.State().Index)
}

func TestEmptyListIsStatic(t *testing.T) {
	e, fake, seen := newRecorded(t, nil, testOpts)
	e.Start()
	fake.Advance(time.Minute)

	assert.Equal(t, "", e.Text())
	assert.Empty(t, *seen)
	assert.Equal(t, 0, fake.Pending())
}

func TestRunesNotBytes(t *testing.T) {
	e, fake, _ := newRecorded(t, []string{"héllo"}, testOpts)
	e.Start()
	fake.Advance(2 * testOpts.TypingSpeed)
	assert.Equal(t, "hé", e.Text())
}

func TestStopCancelsTimers(t *testing.T) {
	e, fake, seen := newRecorded(t, []string{"Cloud", "DevOps"}, testOpts)
	e.Start()
	fake.Advance(3 * testOpts.TypingSpeed)
	before := len(*seen)
	snapshot := e.State()

	e.Stop()
	assert.Equal(t, 0, fake.Pending())

	fake.Advance(time.Minute)
	assert.Len(t, *seen, before)
	assert.Equal(t, snapshot, e.State())

	// a stopped engine cannot be restarted
	e.Start()
	assert.Equal(t, 0, fake.Pending())
}

func TestStopWithRealClock(t *testing.T) {
	e := New([]string{"abcdef"}, Options{TypingSpeed: time.Millisecond, DeletingSpeed: time.Millisecond, PauseDuration: time.Millisecond}, clock.Real())
	calls := make(chan State, 1024)
	e.OnChange(func(s State) { calls <- s })
	e.Start()
	time.Sleep(10 * time.Millisecond)
	e.Stop()

	n := len(calls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, len(calls))
}
