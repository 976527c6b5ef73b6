package library

import "strings"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse mirrors the payload returned by /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse is the generic {message} payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProgressResponse mirrors /api/progress.
type ProgressResponse struct {
	CompletedTopicIDs []int64 `json:"completed_topic_ids"`
}

// Course is a top-level catalogue entry.
type Course struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Module groups topics within a course.
type Module struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TopicSummary is a topic as listed under a module.
type TopicSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Topic is a full topic page.
type Topic struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Content   string     `json:"content"`
	Resources []Resource `json:"resources"`
}

// Resource is a file or link attached to a topic.
type Resource struct {
	Name         string `json:"name"`
	PathOrURL    string `json:"path_or_url"`
	ResourceType string `json:"resource_type"`
}

// TypeLabel returns a display label for the resource type.
func (r Resource) TypeLabel() string {
	kind := strings.ToLower(strings.TrimSpace(r.ResourceType))
	switch kind {
	case "":
		return "File"
	case "pdf":
		return "PDF"
	default:
		return strings.ToUpper(kind[:1]) + kind[1:]
	}
}

// User is an account as listed for administrators.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// SearchResult is one catalogue search hit.
type SearchResult struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Path returns the in-app path the result links to. Results may carry
// hash-style links ("#/topics/3") or bare paths.
func (r SearchResult) Path() string {
	p := strings.TrimSpace(r.URL)
	p = strings.TrimPrefix(p, "#")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
