package models

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,newsfeed_username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

// AuthResponse is returned after a successful login.
type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        Identity `json:"user"`
}

// SignupResponse is returned after a successful signup.
type SignupResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateKeywordRequest is the body of POST /api/keywords. Keyword is
// normalized before validation.
type CreateKeywordRequest struct {
	Keyword string `json:"keyword" validate:"required,max=100"`
}

// ArticleListParams are the query parameters of GET /api/articles.
type ArticleListParams struct {
	Page      int    `json:"page" validate:"min=1"`
	PageSize  int    `json:"page_size" validate:"min=1,max=100"`
	SortBy    string `json:"sort_by" validate:"sort_by"`
	Language  string `json:"language" validate:"news_language"`
	MatchMode string `json:"match_mode" validate:"match_mode"`
}

// SummarizeRequest is the body of POST /api/summarize.
type SummarizeRequest struct {
	Articles []ArticleForSummary `json:"articles" validate:"required,min=1,max=50,dive"`
}

// SummaryResponse is returned by POST /api/summarize.
type SummaryResponse struct {
	Summary string `json:"summary"`
}
