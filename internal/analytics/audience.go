package analytics

import (
	"context"
	"math"
)

type AgeGroup struct {
	Range      string  `json:"range"`
	Percentage float64 `json:"percentage"`
}

type GeoShare struct {
	Country    string  `json:"country"`
	Percentage float64 `json:"percentage"`
}

type Audience struct {
	AgeGroups       []AgeGroup `json:"ageGroups"`
	GeoDistribution []GeoShare `json:"geoDistribution"`
}

// The platforms expose no demographic breakdown yet, so every user with an
// account sees the same distribution. Both lists sum to 100.
var (
	defaultAgeGroups = []AgeGroup{
		{"18-24", 24}, {"25-34", 42}, {"35-44", 21}, {"45-54", 9}, {"55+", 4},
	}
	defaultGeo = []GeoShare{
		{"United States", 38}, {"United Kingdom", 16}, {"Canada", 12},
		{"Australia", 8}, {"Germany", 7}, {"Other", 19},
	}
)

// Audience returns the demographic breakdown for userID.
func (a *Aggregator) Audience(ctx context.Context, userID int64) (Audience, error) {
	u, err := a.load(ctx, userID)
	if err != nil {
		return Audience{}, err
	}
	if !u.hasAccounts() {
		return Audience{AgeGroups: []AgeGroup{}, GeoDistribution: []GeoShare{}}, nil
	}
	return Audience{
		AgeGroups:       append([]AgeGroup(nil), defaultAgeGroups...),
		GeoDistribution: append([]GeoShare(nil), defaultGeo...),
	}, nil
}

type Competitor struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	EngagementRate float64 `json:"engagementRate"`
	BarHeight      int     `json:"barHeight"`
	Color          string  `json:"color"`
}

type CompetitorInsight struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type CompetitorData struct {
	Competitors []Competitor        `json:"competitors"`
	Insights    []CompetitorInsight `json:"insights"`
}

// OwnBrandName labels entry 0 of the competitor table.
const OwnBrandName = "Your Brand"

// Tracked competitors. Adding and removing competitors is not supported, so
// the set is fixed.
var trackedCompetitors = []Competitor{
	{Name: "Competitor A", EngagementRate: 3.9, Color: "#FF9100"},
	{Name: "Competitor B", EngagementRate: 3.1, Color: "#00BFA5"},
	{Name: "Competitor C", EngagementRate: 5.2, Color: "#FF4081"},
}

var competitorInsights = []CompetitorInsight{
	{
		ID:          1,
		Title:       "Content Frequency",
		Description: "Competitor C posts 3x more frequently than you on Instagram, which may explain their higher engagement rate.",
		Icon:        "zap",
	},
	{
		ID:          2,
		Title:       "Content Formats",
		Description: "Your video content outperforms competitors, but they lead in carousel posts with 2.1x higher engagement.",
		Icon:        "target",
	},
}

// Competitors compares the user's engagement rate (across all their
// content) with the tracked competitors. Entry 0 is always the user.
func (a *Aggregator) Competitors(ctx context.Context, userID int64) (CompetitorData, error) {
	u, err := a.load(ctx, userID)
	if err != nil {
		return CompetitorData{}, err
	}
	if !u.hasAccounts() {
		return CompetitorData{Competitors: []Competitor{}, Insights: []CompetitorInsight{}}, nil
	}

	var views, engagement int64
	for _, it := range u.items {
		views += it.Views
		engagement += it.Engagement
	}
	own := round1(rate(engagement, views))

	out := make([]Competitor, 0, len(trackedCompetitors)+1)
	out = append(out, Competitor{ID: 1, Name: OwnBrandName, EngagementRate: own, BarHeight: BarHeight(own), Color: "#6200EA"})
	for i, c := range trackedCompetitors {
		c.ID = i + 2
		c.BarHeight = BarHeight(c.EngagementRate)
		out = append(out, c)
	}
	return CompetitorData{
		Competitors: out,
		Insights:    append([]CompetitorInsight(nil), competitorInsights...),
	}, nil
}

// BarHeight scales an engagement rate (in percent) to a bar size.
func BarHeight(rate float64) int {
	return int(math.Round(rate * 10))
}
