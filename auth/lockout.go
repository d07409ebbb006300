package auth

import (
	"fmt"
	"time"
)

// Lockout defaults.
const (
	// DefaultLockoutThreshold is the number of failed logins that triggers a lockout.
	DefaultLockoutThreshold = 5

	// DefaultLockoutWindow is how long further logins are refused locally.
	DefaultLockoutWindow = 60 * time.Second
)

// LockoutPolicy describes when repeated failures lock logins out.
type LockoutPolicy struct {
	Threshold int
	Window    time.Duration
}

// DefaultLockoutPolicy returns five failures / sixty seconds.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Window: DefaultLockoutWindow}
}

// IsLockedOut returns true if lockUntil is still in the future at now.
func (p LockoutPolicy) IsLockedOut(lockUntil *time.Time, now time.Time) bool {
	return lockUntil != nil && now.Before(*lockUntil)
}

// Remaining returns the time left on the lockout, or zero.
func (p LockoutPolicy) Remaining(lockUntil *time.Time, now time.Time) time.Duration {
	if !p.IsLockedOut(lockUntil, now) {
		return 0
	}
	return lockUntil.Sub(now)
}

// ComputeLockUntil returns the lockout deadline for the given failure count,
// or nil below the threshold.
func (p LockoutPolicy) ComputeLockUntil(failures int, now time.Time) *time.Time {
	if failures < p.Threshold {
		return nil
	}
	until := now.Add(p.Window)
	return &until
}

// ResetOnSuccess returns the failure count and lock deadline to apply after a successful login.
func ResetOnSuccess() (int, *time.Time) {
	return 0, nil
}

// Message is the text shown while logins are locked out.
func (p LockoutPolicy) Message() string {
	return "too many attempts, retry in " + humanWindow(p.Window)
}

func humanWindow(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", n)
	}
	secs := int(d.Round(time.Second) / time.Second)
	if secs == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", secs)
}
