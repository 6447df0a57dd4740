package models

// MaxSummaryArticles is the largest batch accepted for one summary.
const MaxSummaryArticles = 50

// ArticleForSummary is the subset of an article sent to the summarizer.
type ArticleForSummary struct {
	Title       string  `json:"title" validate:"required,max=1000"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Source      *string `json:"source,omitempty" validate:"omitempty,max=200"`
}

// SummaryStatus reports whether summarization is available.
type SummaryStatus struct {
	Enabled bool    `json:"enabled"`
	Message *string `json:"message"`
}
