package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/social-pulse/internal/apperror"
)

// Timeframe selects the range and resolution of the performance chart.
type Timeframe string

const (
	Timeframe30Days  Timeframe = "30days"
	TimeframeQuarter Timeframe = "quarter"
	TimeframeYTD     Timeframe = "ytd"
)

// Point counts per timeframe. The chart renders a fixed number of points
// so the x-axis never reflows between ranges of the same kind.
var pointCounts = map[Timeframe]int{
	Timeframe30Days:  5,
	TimeframeQuarter: 3,
	TimeframeYTD:     6,
}

// ParseTimeframe validates s. An empty string selects 30days.
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return Timeframe30Days, nil
	}
	tf := Timeframe(s)
	if _, ok := pointCounts[tf]; !ok {
		return "", apperror.ValidationFailed("timeframe", "timeframe must be one of 30days, quarter, ytd")
	}
	return tf, nil
}

// Point is one labelled x-axis position with a value per platform.
type Point struct {
	Label  string
	Values map[string]int64
}

// MarshalJSON flattens the point into {"date": label, "<platform>": n, ...},
// the shape the chart widget consumes.
func (p Point) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Values)+1)
	for k, v := range p.Values {
		out[k] = v
	}
	out["date"] = p.Label
	return json.Marshal(out)
}

type Performance struct {
	Timeframe Timeframe `json:"timeframe"`
	Points    []Point   `json:"data"`
}

// bucket is a half-open time range [from, to) with its label.
type bucket struct {
	label    string
	from, to time.Time
}

// buckets lays out the x-axis for tf relative to now.
//
//	30days:  Day 1 | Day 7 | Day 14 | Day 21 | Day 30   (day 30 is today)
//	quarter: the last 3 calendar months, current month last
//	ytd:     the last 6 calendar months, current month last
func buckets(tf Timeframe, now time.Time) []bucket {
	today := now.UTC().Truncate(24 * time.Hour)
	if tf == Timeframe30Days {
		day1 := today.AddDate(0, 0, -29)
		ends := []int{1, 7, 14, 21, 30}
		out := make([]bucket, len(ends))
		prev := 0
		for i, end := range ends {
			out[i] = bucket{
				label: fmt.Sprintf("Day %d", end),
				from:  day1.AddDate(0, 0, prev),
				to:    day1.AddDate(0, 0, end),
			}
			prev = end
		}
		return out
	}

	n := pointCounts[tf]
	month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]bucket, n)
	for i := range n {
		from := month.AddDate(0, i-(n-1), 0)
		out[i] = bucket{
			label: from.Format("Jan"),
			from:  from,
			to:    from.AddDate(0, 1, 0),
		}
	}
	return out
}

// Performance returns the per-platform views chart for tf.
//
// Snapshot views are summed per bucket when the user has snapshots. A user
// with connected accounts but no snapshots gets sample values. A user
// without accounts gets the labels with no values.
func (a *Aggregator) Performance(ctx context.Context, userID int64, tf Timeframe) (Performance, error) {
	if _, ok := pointCounts[tf]; !ok {
		return Performance{}, apperror.ValidationFailed("timeframe", "timeframe must be one of 30days, quarter, ytd")
	}
	u, err := a.load(ctx, userID)
	if err != nil {
		return Performance{}, err
	}
	snaps, err := a.store.ListSnapshotsByUser(ctx, userID)
	if err != nil {
		return Performance{}, fmt.Errorf("analytics: listing snapshots: %w", err)
	}

	bs := buckets(tf, a.now())
	points := make([]Point, len(bs))
	platforms := u.platforms()
	for i, b := range bs {
		points[i] = Point{Label: b.label, Values: make(map[string]int64, len(platforms))}
		for _, p := range platforms {
			points[i].Values[p] = 0
		}
	}

	switch {
	case !u.hasAccounts():
		// labels only
	case len(snaps) == 0:
		s := a.sampler(userID, streamPerformance)
		for i := range points {
			for _, p := range platforms {
				points[i].Values[p] = s.platformViews(p)
			}
		}
	default:
		for _, snap := range snaps {
			for i, b := range bs {
				if !snap.Date.Before(b.from) && snap.Date.Before(b.to) {
					points[i].Values[snap.Platform] += snap.Views
					break
				}
			}
		}
	}

	return Performance{Timeframe: tf, Points: points}, nil
}
