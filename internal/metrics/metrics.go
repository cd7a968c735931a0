package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Throughput metrics - Track committed lifecycle transitions
var (
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pact_transitions_total",
			Help: "Total number of committed pact transitions by kind",
		},
		[]string{"kind"},
	)

	PactsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pact_pacts_created_total",
		Help: "Total number of challenge pacts created",
	})

	ActivitiesSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pact_activities_saved_total",
			Help: "Total number of activity entries saved by kind",
		},
		[]string{"kind"},
	)
)

// Money metrics - Track value moved through vaults (base units)
var (
	StakedVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pact_staked_volume_total",
		Help: "Total amount deposited into pact vaults",
	})

	SettledVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pact_settled_volume_total",
		Help: "Total amount paid out of vaults on completion",
	})

	FeesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pact_fees_collected_total",
		Help: "Total protocol fees routed to the fee account",
	})

	RefundedVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pact_refunded_volume_total",
		Help: "Total amount refunded on cancellation",
	})
)

// Performance metrics - Track unit of work latency
var (
	TransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pact_transition_duration_seconds",
			Help:    "Time taken to run one lifecycle unit of work",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Error metrics - Track failures
var (
	GuardFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pact_guard_failures_total",
			Help: "Total number of rejected transitions by error name",
		},
		[]string{"error"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pact_errors_total",
			Help: "Total number of errors by service",
		},
		[]string{"service"},
	)
)

// Follow-up metrics - Track the post-commit event queue
var (
	EventQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pact_event_queue_depth",
		Help: "Number of events waiting for follow-up services",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pact_events_dropped_total",
		Help: "Events dropped because the follow-up queue was full",
	})
)

// Oracle metrics - Track the elimination sweep
var (
	OracleEliminations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pact_oracle_eliminations_total",
		Help: "Participants eliminated by the oracle sweep",
	})

	OracleSettlements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pact_oracle_settlements_total",
		Help: "Pacts completed by the oracle sweep",
	})

	OracleVerifyErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pact_oracle_verify_errors_total",
			Help: "Verifier failures by verification type",
		},
		[]string{"verification_type"},
	)

	OracleSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pact_oracle_sweep_duration_seconds",
		Help:    "Time taken by one full oracle sweep",
		Buckets: prometheus.DefBuckets,
	})

	ActivePacts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pact_active_pacts",
		Help: "Active pacts seen by the last oracle sweep",
	})
)
