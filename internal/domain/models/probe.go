package models

// Signal names one activity stream the dashboard backend can count.
type Signal string

const (
	SignalOrders Signal = "orders"
	SignalStocks Signal = "stocks"
	SignalPrices Signal = "prices"
)

// ProbeOutcome tags a ProbeResult variant.
type ProbeOutcome string

const (
	ProbeFound        ProbeOutcome = "found"
	ProbeNotFound     ProbeOutcome = "not_found"
	ProbeBackendError ProbeOutcome = "backend_error"
)

// ProbeResult is the outcome of one windowed probe. Exactly one variant
// applies: Found carries (count, window), NotFound carries the last
// window tried, BackendError carries the failing status and message.
type ProbeResult struct {
	Outcome       ProbeOutcome
	Count         int
	WindowMinutes int
	Status        int
	Message       string
}

// Found builds the success variant: activity was seen inside the window.
func Found(count, windowMinutes int) ProbeResult {
	return ProbeResult{Outcome: ProbeFound, Count: count, WindowMinutes: windowMinutes}
}

// NoneFound builds the exhausted variant: every window came back empty.
func NoneFound(lastWindowMinutes int) ProbeResult {
	return ProbeResult{Outcome: ProbeNotFound, WindowMinutes: lastWindowMinutes}
}

// ProbeFailed builds the error variant.
func ProbeFailed(status int, message string) ProbeResult {
	return ProbeResult{Outcome: ProbeBackendError, Status: status, Message: message}
}
