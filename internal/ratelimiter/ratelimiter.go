package ratelimiter

import "time"

// Limiter decides whether a client may make another request. When it may
// not, the returned duration is how long to wait.
type Limiter interface {
	Allow(ip string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}
