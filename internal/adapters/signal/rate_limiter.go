package signal

import (
	"golang.org/x/time/rate"
)

// ConnRateLimiter bounds how many frames one connection may submit.
type ConnRateLimiter struct {
	limiter *rate.Limiter
}

// NewConnRateLimiter allows perSecond frames on average with bursts of burst.
// A non-positive perSecond disables limiting.
func NewConnRateLimiter(perSecond float64, burst int) *ConnRateLimiter {
	if perSecond <= 0 {
		return &ConnRateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = 1
	}
	return &ConnRateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (rl *ConnRateLimiter) Allow() bool {
	return rl.limiter.Allow()
}
