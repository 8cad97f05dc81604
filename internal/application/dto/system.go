package dto

import "time"

type InitializePersistenceCommand struct {
	ReadinessTimeout       time.Duration
	ReadinessRetryInterval time.Duration
}

type GetHealthCommand struct{}

type HealthOutput struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type GetOpenAPISpecQuery struct{}

// OpenAPISpecOutput is the served API document and the media type it is served as.
type OpenAPISpecOutput struct {
	Content     []byte
	ContentType string
}
