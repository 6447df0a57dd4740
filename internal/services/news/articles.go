package news

import (
	"html"
	"strings"
	"time"

	"github.com/benvon/newsfeed/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every tag. It is safe for concurrent use.
var textPolicy = bluemonday.StrictPolicy()

type rawSource struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

type rawArticle struct {
	Source      *rawSource `json:"source"`
	Author      *string    `json:"author"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	URL         *string    `json:"url"`
	URLToImage  *string    `json:"urlToImage"`
	PublishedAt *string    `json:"publishedAt"`
	Content     *string    `json:"content"`
}

type rawResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []rawArticle `json:"articles"`
}

// toArticleList keeps only articles that have both a title and a URL.
func (r rawResponse) toArticleList() *models.ArticleList {
	list := &models.ArticleList{
		Articles:     make([]models.Article, 0, len(r.Articles)),
		TotalResults: r.TotalResults,
		Status:       r.Status,
	}
	if list.Status == "" {
		list.Status = "ok"
	}
	for _, a := range r.Articles {
		if article, ok := a.toArticle(); ok {
			list.Articles = append(list.Articles, article)
		}
	}
	return list
}

func (a rawArticle) toArticle() (models.Article, bool) {
	title := trimmed(a.Title)
	link := trimmed(a.URL)
	if title == "" || link == "" {
		return models.Article{}, false
	}

	out := models.Article{
		Author:      a.Author,
		Title:       title,
		Description: plainText(a.Description),
		URL:         link,
		URLToImage:  a.URLToImage,
		PublishedAt: parseTime(a.PublishedAt),
		Content:     plainText(a.Content),
	}
	if a.Source != nil {
		out.Source = models.ArticleSource{ID: a.Source.ID, Name: a.Source.Name}
	}
	return out, true
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// plainText removes markup that some publishers leave in descriptions.
func plainText(s *string) *string {
	if s == nil {
		return nil
	}
	clean := strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(*s)))
	return &clean
}

func parseTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}
