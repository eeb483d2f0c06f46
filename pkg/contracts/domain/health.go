package domain

import "time"

// Health status values
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// ComponentHealth is the state of one dependency of the verifier.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthReport aggregates component health.
type HealthReport struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}
