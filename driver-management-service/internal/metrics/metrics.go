package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	JobRequestsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "job_requests_created_total",
		Help: "Job requests created by companies",
	})

	JobRequestTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_request_transitions_total",
		Help: "Job request status transitions by target status",
	}, []string{"status"})

	IdentitySyncAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_sync_attempts_total",
		Help: "Identity store sync attempts by result",
	}, []string{"result"})

	IdentityOutboxPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "identity_outbox_pending",
		Help: "Identity sync records waiting to be delivered",
	})

	CollaboratorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collaborator_failures_total",
		Help: "Swallowed failures of calls to other services",
	}, []string{"collaborator"})
)

func init() {
	prometheus.MustRegister(
		JobRequestsCreated,
		JobRequestTransitions,
		IdentitySyncAttempts,
		IdentityOutboxPending,
		CollaboratorFailures,
	)
}
