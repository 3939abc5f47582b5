package api

// IssueKeyRequest is the request body for issuing a key.
type IssueKeyRequest struct {
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	Scopes     []string `json:"scopes,omitempty"`
	RatePerMin *int     `json:"rate_per_min,omitempty"`
	DailyQuota *int     `json:"daily_quota,omitempty"`
	Domains    []string `json:"domains,omitempty"`
}

// IssueKeyResponse carries the full key. It is shown exactly once.
type IssueKeyResponse struct {
	APIKey string `json:"api_key"`
	Prefix string `json:"prefix"`
}

// RevokeKeyRequest is the request body for revoking a key.
type RevokeKeyRequest struct {
	Prefix string `json:"prefix"`
}

// KeyResponse is the API response for a stored key. Hashes are never
// returned.
type KeyResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Prefix      string   `json:"prefix"`
	Scopes      []string `json:"scopes"`
	RatePerMin  int      `json:"rate_per_min"`
	DailyQuota  int      `json:"daily_quota"`
	DomainAllow []string `json:"domain_allow"`
	CreatedAt   string   `json:"created_at"`
	RevokedAt   string   `json:"revoked_at,omitempty"`
	LastUsedAt  string   `json:"last_used_at,omitempty"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
