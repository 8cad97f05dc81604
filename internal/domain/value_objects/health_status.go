package valueobjects

type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
)

func (h HealthStatus) IsHealthy() bool {
	return h == HealthStatusOK
}

// Worse folds a component status into an aggregate; any degraded component degrades the whole.
func (h HealthStatus) Worse(other HealthStatus) HealthStatus {
	if h.IsHealthy() && other.IsHealthy() {
		return HealthStatusOK
	}
	return HealthStatusDegraded
}

func (h HealthStatus) String() string {
	return string(h)
}
