package models

// Auth API types
type RequestTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RequestTokenResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expiresIn"`
}

type VerifyTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required,len=6"`
}

type VerifyTokenResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Token   string      `json:"token"`
	Usuario UserSummary `json:"usuario"`
}

type StatusResponse struct {
	Success       bool        `json:"success"`
	Authenticated bool        `json:"authenticated"`
	Usuario       UserSummary `json:"usuario"`
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SweepExpiredResponse struct {
	TokensDeleted       int64 `json:"tokensDeleted"`
	SessionsDeactivated int64 `json:"sessionsDeactivated"`
}

// Error response. Code is a stable machine-readable identifier; Error is the
// human message. Internal error text never crosses this boundary.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
