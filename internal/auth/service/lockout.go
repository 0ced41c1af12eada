package service

import "time"

// LockoutPolicy decides when repeated failures lock an account. The counter
// increment itself happens atomically in the store; this type only owns the
// thresholds and the interpretation of the result.
//
// Lockout is per-account, not per-IP: many IPs hammering one account are
// throttled, one IP hammering many accounts is not.
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

func NewLockoutPolicy(maxAttempts, lockoutMinutes int) LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   time.Duration(lockoutMinutes) * time.Minute,
	}
}

// LocksAt reports whether failedCount consecutive failures trips the lock.
func (p LockoutPolicy) LocksAt(failedCount int) bool {
	return failedCount >= p.MaxFailedAttempts
}

func (p LockoutPolicy) LockoutMinutes() int {
	return int(p.LockoutDuration.Minutes())
}
