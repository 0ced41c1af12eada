package domain

import "time"

// Organization and Subscription are read-through snapshots embedded in the
// login response. This service never creates or mutates them.
type Organization struct {
	ID           string
	Name         string
	Code         *string
	Type         string
	ContactEmail *string
	Subscription *Subscription
}

type Subscription struct {
	ID       string
	Plan     string
	Status   string
	EndDate  time.Time
	MaxUsers int
}

func (s *Subscription) IsExpired(now time.Time) bool {
	return now.After(s.EndDate)
}

// DaysRemaining is floored at zero once the subscription has ended.
func (s *Subscription) DaysRemaining(now time.Time) int {
	if s.IsExpired(now) {
		return 0
	}
	return int(s.EndDate.Sub(now).Hours() / 24)
}
