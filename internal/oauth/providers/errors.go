package providers

import "fmt"

// ExchangeError reports any failure during token exchange or identity
// resolution. The raw provider payload is retained for operator logs
// and must never be serialized to the browser-facing user.
type ExchangeError struct {
	Provider string
	Op       string // the step that failed: "token", "long_lived_token", "pages", ...
	Status   int    // HTTP status from the provider, 0 on transport errors
	Body     string // raw provider error payload, logs only
	Err      error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: provider returned status %d", e.Provider, e.Op, e.Status)
}

func (e *ExchangeError) Unwrap() error { return e.Err }
