package scrollspy

// Layer is a decorative element that drifts with the scroll offset.
type Layer struct {
	Name   string
	Factor float64
}

// BackgroundLayers are the fixed background elements behind the page.
var BackgroundLayers = []Layer{
	{Name: "labels", Factor: 0.02},
	{Name: "orb-cyan", Factor: 0.05},
	{Name: "orb-violet", Factor: -0.03},
	{Name: "orb-pink", Factor: 0.08},
}

// Translate returns the vertical translation in pixels for a layer.
func Translate(offset int, factor float64) float64 {
	return float64(offset) * factor
}

// Offsets computes the translation of every layer at offset.
func Offsets(offset int, layers []Layer) map[string]float64 {
	out := make(map[string]float64, len(layers))
	for _, l := range layers {
		out[l.Name] = Translate(offset, l.Factor)
	}
	return out
}

// HeroTransform is the hero block's scroll-out animation.
type HeroTransform struct {
	Y       float64 `json:"y"`
	Opacity float64 `json:"opacity"`
}

const heroTravel = 200

// Hero maps how far the hero block has scrolled out of view onto its
// translation (0 to 200px) and opacity (1 to 0 over the first half).
func Hero(offset, heroHeight int) HeroTransform {
	if heroHeight <= 0 {
		return HeroTransform{Opacity: 1}
	}
	progress := clamp(float64(offset)/float64(heroHeight), 0, 1)
	return HeroTransform{
		Y:       progress * heroTravel,
		Opacity: clamp(1-progress/0.5, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
