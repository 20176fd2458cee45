package kvclient

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/kvclient/command"
)

// NewCircuitBreakerConfig returns a function that creates the circuit
// breaker of a client. The breaker opens when at least 3 requests were
// made in the interval and 60% of them failed.
//
// Error replies from the server, canceled contexts and aborted
// transactions never count as failures.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.CircuitBreaker[command.Reply] {
	return func(name string) *gobreaker.CircuitBreaker[command.Reply] {
		settings := gobreaker.Settings{
			Name:        name,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[command.Reply](settings)
	}
}
