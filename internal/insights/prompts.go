package insights

import (
	"encoding/json"
	"fmt"
)

const (
	insightsSystem = "You are an expert social media analyst with years of experience interpreting engagement trends and content performance."

	querySystem = "You are a helpful analytics assistant specialized in explaining social media data. " +
		"Always provide specific metrics and actionable insights based only on the provided data."

	tagSystem = "You generate accurate, specific, and relevant tags for social media content. " +
		"Tags should be lowercase, single words or hyphenated phrases."

	recommendationsSystem = "You are a content strategy expert who specializes in recommending high-performing content ideas based on past performance data."

	competitorsSystem = "You are an expert social media strategist and competitive analyst with deep experience in digital marketing and audience engagement. " +
		"You provide data-driven insights and actionable recommendations based on competitive analysis."

	contentGapsSystem = "You are a content strategy specialist who excels at identifying market opportunities and competitive content gaps. " +
		"You provide specific, actionable insights based on data analysis."
)

// toJSON renders v for embedding in a prompt. A value that cannot be
// encoded becomes null rather than failing the whole call.
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func insightsPrompt(content, summary, platforms any) string {
	return fmt.Sprintf(`Analyze the following social media content and analytics data to generate insights.

Content: %s
Analytics: %s
Platforms: %s

Respond with a JSON object in this format:
{
  "summary": "A concise summary of the main insight (1-2 sentences)",
  "details": ["Detail point 1", "Detail point 2"],
  "recommendations": ["Recommendation 1", "Recommendation 2"]
}`, toJSON(content), toJSON(summary), toJSON(platforms))
}

func queryPrompt(query string, content, summary, platforms any) string {
	return fmt.Sprintf(`Answer the following question about social media content and analytics data:

Question: %q

Available Content: %s
Analytics Data: %s
Platforms: %s

Provide a concise, helpful answer based only on the data provided.`, query, toJSON(content), toJSON(summary), toJSON(platforms))
}

func tagPrompt(title, description, platform, contentType string) string {
	if contentType == "" {
		contentType = "post"
	}
	return fmt.Sprintf(`Generate relevant tags for the following social media content.
These tags should be specific, relevant to the content, and useful for categorization.

Title: %q
Description: %q
Platform: %s
Content Type: %s

Return only a JSON array of tags, for example: ["productivity", "tutorial", "remote-work"]
Each tag should be a single word or hyphenated phrase, all lowercase. Generate between 3-7 tags.`,
		title, description, platform, contentType)
}

func recommendationsPrompt(content, summary, platforms any) string {
	return fmt.Sprintf(`Based on the following content performance data and analytics, suggest new content ideas
that would likely perform well.

Recent Content: %s
Analytics: %s
Platforms: %s

Generate 3 content ideas as a JSON array like this:
[
  {
    "platform": "instagram",
    "title": "Suggested content title",
    "contentType": "carousel/video/post/etc",
    "confidence": 0.92
  }
]

The confidence score should be between 0 and 1, indicating how confident you are this content would perform well.`,
		toJSON(content), toJSON(summary), toJSON(platforms))
}

func competitorsPrompt(p CompetitorPayload) string {
	platform := p.Platform
	if platform == "" {
		platform = "multiple platforms"
	}
	period := p.TimePeriod
	if period == "" {
		period = "last 30 days"
	}
	benchmarks := p.IndustryBenchmarks
	if benchmarks == nil {
		benchmarks = map[string]any{}
	}
	return fmt.Sprintf(`Analyze the following competitor data and provide detailed insights. Your analysis should focus on:
1. Performance comparison between the user and their competitors
2. Key strengths and weaknesses of each competitor
3. Actionable opportunities for the user to gain competitive advantage
4. Potential threats and challenges in the competitive landscape

User Data: %s
Competitor Data: %s
Industry Benchmarks: %s
Platform: %s
Time Period: %s

Return a comprehensive analysis as a JSON object with the keys "summary", "comparison"
(with "overallPosition" and "keyMetrics"), "competitors" (each with "name", "strengths",
"weaknesses", "contentStrategy", "uniqueValue"), "opportunities", "threats", "contentGaps"
and "audienceInsights".`,
		toJSON(p.UserData), toJSON(p.CompetitorData), toJSON(benchmarks), platform, period)
}

func contentGapsPrompt(p ContentGapPayload) string {
	platform := p.Platform
	if platform == "" {
		platform = "all platforms"
	}
	analytics := p.UserAnalytics
	if analytics == nil {
		analytics = map[string]any{}
	}
	return fmt.Sprintf(`Analyze the user's content and their competitors' content to identify content gaps and missed opportunities.
Explore themes, formats, topics, and posting strategies that competitors are leveraging successfully
but the user is not yet utilizing.

User Content: %s
Competitor Content: %s
User Analytics: %s
Platform Focus: %s

Return the analysis as a JSON object with the keys "summary", "contentGaps" (each with "category",
"title", "description", "competitorExamples", "recommendedApproach", "potentialValue", "difficulty"),
"missingFormats", "underutilizedThemes" and "recommendedContentCalendar".`,
		toJSON(p.UserContent), toJSON(p.CompetitorContent), toJSON(analytics), platform)
}
