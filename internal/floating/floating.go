// Package floating lays out the faint technology labels drifting behind
// the page.
//
// The first paint must be reproducible so the server-rendered markup and
// the first client frame agree; positions are only randomized once the
// page is mounted.
package floating

import (
	"math/rand/v2"
	"sync"
)

// Label is a name drawn in a brand color.
type Label struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Placement is where and how a label floats. X and Y are percentages of
// the viewport.
type Placement struct {
	Label
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Duration float64 `json:"duration"`
	Delay    float64 `json:"delay"`
	Rotation float64 `json:"rotation"`
}

// DefaultLabels is used when the content file lists none.
var DefaultLabels = []Label{
	{Name: "AWS", Color: "#FF9900"},
	{Name: "K8s", Color: "#326CE5"},
	{Name: "Docker", Color: "#2496ED"},
	{Name: "Azure", Color: "#0078D4"},
	{Name: "Terraform", Color: "#7B42BC"},
	{Name: "Jenkins", Color: "#D24939"},
	{Name: "Python", Color: "#3776AB"},
	{Name: "React", Color: "#61DAFB"},
	{Name: "Node.js", Color: "#339933"},
	{Name: "Git", Color: "#F05032"},
}

// Seed places every label as a pure function of its index.
func Seed(labels []Label) []Placement {
	out := make([]Placement, len(labels))
	for i, l := range labels {
		out[i] = Placement{
			Label:    l,
			X:        float64(10 + (i*8)%80),
			Y:        float64(10 + (i*9)%80),
			Size:     float64(18 + (i%5)*3),
			Duration: float64(18 + (i%4)*5),
			Delay:    float64(i) * 0.8,
			Rotation: float64((i%5)*4 - 10),
		}
	}
	return out
}

// Randomize scatters the labels using rng.
func Randomize(labels []Label, rng *rand.Rand) []Placement {
	out := make([]Placement, len(labels))
	for i, l := range labels {
		out[i] = Placement{
			Label:    l,
			X:        5 + rng.Float64()*90,
			Y:        5 + rng.Float64()*90,
			Size:     16 + rng.Float64()*20,
			Duration: 15 + rng.Float64()*20,
			Delay:    rng.Float64() * 10,
			Rotation: rng.Float64()*20 - 10,
		}
	}
	return out
}

// Phase of a Field.
type Phase int

const (
	Seeded Phase = iota
	Randomized
)

func (p Phase) String() string {
	if p == Randomized {
		return "randomized"
	}
	return "seeded"
}

// Field holds the layout for one page view.
type Field struct {
	mu         sync.Mutex
	labels     []Label
	rng        *rand.Rand
	phase      Phase
	placements []Placement
}

// NewField starts in the Seeded phase. A nil rng draws from a fresh
// randomly seeded source.
func NewField(labels []Label, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	labels = append([]Label(nil), labels...)
	return &Field{
		labels:     labels,
		rng:        rng,
		placements: Seed(labels),
	}
}

// Randomize moves the field to the Randomized phase. It reports false if
// that already happened.
func (f *Field) Randomize() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == Randomized {
		return false
	}
	f.placements = Randomize(f.labels, f.rng)
	f.phase = Randomized
	return true
}

func (f *Field) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Placements returns a copy of the current layout.
func (f *Field) Placements() []Placement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Placement(nil), f.placements...)
}
