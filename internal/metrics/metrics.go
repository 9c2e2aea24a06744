package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed on /metrics. Registration happens at import time via the
// default registerer, which promhttp serves.
var (
	ScansEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattendance_scans_evaluated_total",
		Help: "Candidate codes run through the scan matcher.",
	})
	ScansMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattendance_scans_matched_total",
		Help: "Scans that matched a student and recorded attendance.",
	})
	ScansUnmatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattendance_scans_unmatched_total",
		Help: "Scans that matched no student.",
	})
	ScansSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattendance_scans_suppressed_total",
		Help: "Scans suppressed by the post-accept cooldown.",
	})
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrattendance_logins_total",
		Help: "Login attempts by role and outcome.",
	}, []string{"role", "outcome"})
)
