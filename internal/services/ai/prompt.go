package ai

import (
	"fmt"
	"strings"

	"github.com/benvon/newsfeed/internal/models"
)

// BuildPrompt renders the summarization prompt for articles.
func BuildPrompt(articles []models.ArticleForSummary) string {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, fmt.Sprintf("**%s**\nSource: %s\nDescription: %s",
			a.Title,
			orDefault(a.Source, "Unknown"),
			orDefault(a.Description, "No description"),
		))
	}

	return fmt.Sprintf("You are a news analyst. Summarize the following %d news articles into a concise, informative summary. \n"+
		"Highlight the main themes, key events, and important takeaways. Keep the summary to 2-3 paragraphs.\n\n"+
		"Articles:\n%s\n\nSummary:", len(articles), strings.Join(blocks, "\n\n"))
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
