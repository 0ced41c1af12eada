package dto

import "time"

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse(data any, message string) Response {
	return Response{Success: true, Message: message, Data: data}
}

func ErrorResponse(message string, errs ...string) Response {
	return Response{Success: false, Message: message, Errors: errs}
}

// LoginResponse is returned by both login and refresh.
type LoginResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type"`
	ExpiresAt    time.Time           `json:"expires_at"`
	User         UserOutput          `json:"user"`
	Organization *OrganizationOutput `json:"organization,omitempty"`
}
