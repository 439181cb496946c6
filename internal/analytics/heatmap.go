package analytics

import (
	"context"
	"math"
	"time"
)

// MaxHeat is the top of the heatmap's discrete scale. Cells hold 0..MaxHeat.
const MaxHeat = 4

var (
	Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	// Times are 3-hour slots starting at the label. 9PM also absorbs the
	// small hours up to 6AM.
	Times = []string{"6AM", "9AM", "12PM", "3PM", "6PM", "9PM"}
)

type Cell struct {
	Day   string `json:"day"`
	Time  string `json:"time"`
	Value int    `json:"value"`
}

type BestTime struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// Heatmap is a dense Weekdays × Times grid, day-major.
type Heatmap struct {
	Weekdays []string `json:"weekdays"`
	Times    []string `json:"times"`
	Cells    []Cell   `json:"cells"`
	BestTime BestTime `json:"bestTime"`
}

// Heatmap buckets the engagement of the user's published content by weekday
// and time slot, then scales each cell against the busiest one.
func (a *Aggregator) Heatmap(ctx context.Context, userID int64) (Heatmap, error) {
	u, err := a.load(ctx, userID)
	if err != nil {
		return Heatmap{}, err
	}

	var grid [7][6]int64
	var peak int64
	for _, it := range u.items {
		if it.PublishedAt == nil {
			continue
		}
		d, t := slotOf(*it.PublishedAt)
		grid[d][t] += it.Engagement
		peak = max(peak, grid[d][t])
	}

	values := make([]int, 0, len(Weekdays)*len(Times))
	switch {
	case peak > 0:
		for d := range Weekdays {
			for t := range Times {
				values = append(values, quantize(grid[d][t], peak))
			}
		}
	case u.hasAccounts():
		s := a.sampler(userID, streamHeatmap)
		for d := range Weekdays {
			for t := range Times {
				values = append(values, s.heat(d, t))
			}
		}
	default:
		values = make([]int, len(Weekdays)*len(Times))
	}

	return buildHeatmap(values), nil
}

func buildHeatmap(values []int) Heatmap {
	h := Heatmap{
		Weekdays: Weekdays,
		Times:    Times,
		Cells:    make([]Cell, 0, len(values)),
	}
	best := -1
	for i, v := range values {
		c := Cell{Day: Weekdays[i/len(Times)], Time: Times[i%len(Times)], Value: v}
		h.Cells = append(h.Cells, c)
		if v > best {
			best = v
			h.BestTime = BestTime{Day: c.Day, Time: c.Time}
		}
	}
	return h
}

// slotOf maps t (UTC) to its weekday row and time-slot column.
func slotOf(t time.Time) (day, slot int) {
	t = t.UTC()
	day = (int(t.Weekday()) + 6) % 7 // Monday first
	h := t.Hour()
	if h < 6 {
		return day, len(Times) - 1
	}
	return day, min((h-6)/3, len(Times)-1)
}

func quantize(v, peak int64) int {
	if peak <= 0 {
		return 0
	}
	q := int(math.Round(float64(v) / float64(peak) * MaxHeat))
	return min(max(q, 0), MaxHeat)
}
