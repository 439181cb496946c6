package analytics

import "math/rand/v2"

// Stream IDs keep the sample views independent of each other: adding a
// draw to the heatmap must not shift the performance chart.
const (
	streamPerformance uint64 = iota + 1
	streamHeatmap
)

// viewRange is [base, base+spread) sample views per point.
type viewRange struct {
	base, spread int64
}

var platformViewRanges = map[string]viewRange{
	"youtube":   {1000, 4000},
	"instagram": {500, 3500},
	"twitter":   {200, 2500},
}

var defaultViewRange = viewRange{100, 1900}

// sampler produces the placeholder values shown before real data exists.
type sampler struct {
	rng *rand.Rand
}

func (a *Aggregator) sampler(userID int64, stream uint64) sampler {
	return sampler{rng: rand.New(rand.NewPCG(a.seed^stream<<56, uint64(userID)))}
}

func (s sampler) platformViews(platform string) int64 {
	r, ok := platformViewRanges[platform]
	if !ok {
		r = defaultViewRange
	}
	return r.base + s.rng.Int64N(r.spread)
}

// heat draws one heatmap cell. Midweek evenings (Wed to Fri, 6PM and 9PM)
// get a boost.
func (s sampler) heat(day, slot int) int {
	v := s.rng.IntN(MaxHeat + 1)
	if day >= 2 && day <= 4 && slot >= 4 {
		v = min(MaxHeat, v+2)
	}
	return v
}
