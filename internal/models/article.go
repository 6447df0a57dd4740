package models

import "time"

// SortBy is a NewsAPI sort order.
type SortBy string

const (
	SortByRelevancy   SortBy = "relevancy"
	SortByPopularity  SortBy = "popularity"
	SortByPublishedAt SortBy = "publishedAt"
)

// Valid reports whether s is a supported sort order.
func (s SortBy) Valid() bool {
	switch s {
	case SortByRelevancy, SortByPopularity, SortByPublishedAt:
		return true
	}
	return false
}

// MatchMode selects how a user's keywords are combined into one query.
type MatchMode string

const (
	// MatchAny joins keywords with OR.
	MatchAny MatchMode = "any"
	// MatchAll joins keywords with AND.
	MatchAll MatchMode = "all"
)

// Valid reports whether m is a supported match mode.
func (m MatchMode) Valid() bool {
	return m == MatchAny || m == MatchAll
}

// Operator returns the boolean operator used to join keywords.
func (m MatchMode) Operator() string {
	if m == MatchAll {
		return "AND"
	}
	return "OR"
}

// Languages accepted by the news search API.
var Languages = []string{"ar", "de", "en", "es", "fr", "he", "it", "nl", "no", "pt", "ru", "sv", "ud", "zh"}

// ValidLanguage reports whether lang is an accepted language code.
func ValidLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// ArticleSource identifies the publisher of an article.
type ArticleSource struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// Article is a news article returned to clients.
type Article struct {
	Source      ArticleSource `json:"source"`
	Author      *string       `json:"author"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	URL         string        `json:"url"`
	URLToImage  *string       `json:"urlToImage"`
	PublishedAt *time.Time    `json:"publishedAt"`
	Content     *string       `json:"content"`
}

// ArticleList is one page of articles plus the upstream total.
type ArticleList struct {
	Articles     []Article `json:"articles"`
	TotalResults int       `json:"totalResults"`
	Status       string    `json:"status"`
}

// EmptyArticleList is returned when a user has no keywords.
func EmptyArticleList() *ArticleList {
	return &ArticleList{Articles: []Article{}, TotalResults: 0, Status: "ok"}
}

// ArticleQuery parameterizes one article search.
type ArticleQuery struct {
	Keywords  []string
	Page      int
	PageSize  int
	SortBy    SortBy
	Language  string
	MatchMode MatchMode
}
