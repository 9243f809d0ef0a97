// Package health aggregates component availability checks.
package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// OracleChecker checks embedding/generation provider availability.
type OracleChecker interface {
	HealthCheck(ctx context.Context) error
}

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the oracle is down but retrieval still works.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db     DBPinger
	oracle OracleChecker
}

// New creates a Service. oracle can be nil.
func New(db DBPinger, oracle OracleChecker) *Service {
	return &Service{db: db, oracle: oracle}
}

// Check runs health checks against all components. A failing document
// store makes the whole service unhealthy; a failing oracle only
// degrades it (lexical retrieval still works).
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	if s.oracle != nil {
		if err := s.oracle.HealthCheck(ctx); err != nil {
			checks["oracle"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["oracle"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
