// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of solving one deal input for a target payment.
type Summary struct {
	Field           string   `json:"field"`
	Term            int      `json:"term"`
	Bundle          string   `json:"bundle"`
	TargetPayment   float64  `json:"targetPayment"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Payment         float64  `json:"payment"`
	Headroom        float64  `json:"headroom"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}
