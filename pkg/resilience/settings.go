package resilience

import "time"

// Breaker defaults for knobs left at zero
const (
	DefaultInterval         = time.Minute
	DefaultOpenTimeout      = 30 * time.Second
	DefaultFailureThreshold = 5
)

// BuildSettings turns the integer knobs read from the environment into Settings
func BuildSettings(name string, intervalSeconds, timeoutSeconds, failureThreshold, successThreshold int) Settings {
	return Settings{
		Name:             name,
		Interval:         secondsOr(intervalSeconds, DefaultInterval),
		Timeout:          secondsOr(timeoutSeconds, DefaultOpenTimeout),
		FailureThreshold: countOr(failureThreshold, DefaultFailureThreshold),
		SuccessThreshold: countOr(successThreshold, 1),
	}
}

func secondsOr(seconds int, def time.Duration) time.Duration {
	if seconds <= 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}

func countOr(n int, def uint32) uint32 {
	if n <= 0 {
		return def
	}
	return uint32(n)
}
