package clients

import (
	"time"

	"github.com/sony/gobreaker"

	"travelplanner/internal/utils"
)

// NewCircuitBreaker returns a gobreaker that trips after 3 consecutive
// failures and stays open for 30 seconds. State changes are logged.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			utils.LogWarn("", "breaker", "state_change", name+": "+from.String()+" -> "+to.String())
		},
	})
}
