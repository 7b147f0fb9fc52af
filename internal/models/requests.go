package models

// SignupRequest creates an account. Role defaults to "tenant" when omitted.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest exchanges credentials for a signed token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateAlertRequest is the manual alert creation body.
type CreateAlertRequest struct {
	AlertType string         `json:"alert_type"`
	Message   string         `json:"message"`
	IPAddress string         `json:"ip_address"`
	Details   map[string]any `json:"details"`
}

// LogPage is the paginated list envelope shared by the log list endpoints.
type LogPage struct {
	Success bool        `json:"success"`
	Logs    []*LogEvent `json:"logs"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	Type    string      `json:"type,omitempty"`
}
