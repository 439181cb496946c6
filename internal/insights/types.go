package insights

import "regexp"

// Insight is the display projection of a generated analysis.
type Insight struct {
	Title           string           `json:"title"`
	Summary         string           `json:"summary"`
	Details         []string         `json:"details"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommendation is one actionable line with a display hint.
type Recommendation struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Type string `json:"type"` // "schedule" or "content"
	Icon string `json:"icon"` // "time" or "edit"
}

// ContentIdea is one suggested post.
type ContentIdea struct {
	ID          int     `json:"id"`
	Platform    string  `json:"platform"`
	Title       string  `json:"title"`
	ContentType string  `json:"contentType"`
	Confidence  float64 `json:"confidence"`
}

// Analysis is a free-form structured analysis as returned by the model.
// On failure it holds only "summary" and "error": true.
type Analysis map[string]any

// Failed reports whether a is the error shape.
func (a Analysis) Failed() bool {
	failed, _ := a["error"].(bool)
	return failed
}

// CompetitorPayload is assembled by the caller for AnalyzeCompetitors.
type CompetitorPayload struct {
	UserData           any    `json:"userData"`
	CompetitorData     any    `json:"competitorData"`
	IndustryBenchmarks any    `json:"industryBenchmarks,omitempty"`
	Platform           string `json:"platform,omitempty"`
	TimePeriod         string `json:"timePeriod,omitempty"`
}

// ContentGapPayload is assembled by the caller for AnalyzeContentGaps.
type ContentGapPayload struct {
	UserContent       any    `json:"userContent"`
	CompetitorContent any    `json:"competitorContent"`
	UserAnalytics     any    `json:"userAnalytics,omitempty"`
	Platform          string `json:"platform,omitempty"`
}

// insightDoc is the JSON shape requested from the model.
type insightDoc struct {
	Summary         string   `json:"summary"`
	Details         []string `json:"details"`
	Recommendations []string `json:"recommendations"`
}

func (d insightDoc) empty() bool {
	return d.Summary == "" && len(d.Details) == 0 && len(d.Recommendations) == 0
}

var schedulingLanguage = regexp.MustCompile(
	`(?i)\b(schedul\w*|timing|time|post(ing)? (at|on)|mondays?|tuesdays?|wednesdays?|thursdays?|fridays?|saturdays?|sundays?|mornings?|evenings?|weekends?|\d{1,2}\s?(am|pm))\b`)

// tagRecommendations classifies each line: anything talking about when to
// post is a schedule item, everything else a content item.
func tagRecommendations(lines []string) []Recommendation {
	out := make([]Recommendation, 0, len(lines))
	for i, text := range lines {
		r := Recommendation{ID: i + 1, Text: text, Type: "content", Icon: "edit"}
		if schedulingLanguage.MatchString(text) {
			r.Type, r.Icon = "schedule", "time"
		}
		out = append(out, r)
	}
	return out
}
