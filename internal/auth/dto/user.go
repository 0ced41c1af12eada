package dto

import "time"

type UserOutput struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	FullName       string     `json:"full_name"`
	IsActive       bool       `json:"is_active"`
	EmailVerified  bool       `json:"email_verified"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	OrganizationID *string    `json:"organization_id,omitempty"`
}

type OrganizationOutput struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Code         *string             `json:"code,omitempty"`
	Type         string              `json:"type"`
	ContactEmail *string             `json:"contact_email,omitempty"`
	Subscription *SubscriptionOutput `json:"subscription,omitempty"`
}

type SubscriptionOutput struct {
	ID            string    `json:"id"`
	Plan          string    `json:"plan"`
	Status        string    `json:"status"`
	EndDate       time.Time `json:"end_date"`
	MaxUsers      int       `json:"max_users"`
	DaysRemaining int       `json:"days_remaining"`
	IsExpired     bool      `json:"is_expired"`
}
