package symbiosis

import "time"

// Result is the output of one analysis run.
type Result struct {
	RunID       string        `json:"run_id"`
	Connections []Connection  `json:"connections"`
	Chains      []Chain       `json:"chains,omitempty"`
	Stats       Stats         `json:"stats"`
	Rejected    []Rejected    `json:"rejected,omitempty"`
	EntityCount int           `json:"entity_count"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Partial     bool          `json:"partial,omitempty"`
}
