package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gesco",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Login attempts by recorded outcome.",
	}, []string{"result"})

	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gesco",
		Subsystem: "auth",
		Name:      "sessions_issued_total",
		Help:      "Sessions created by login or refresh.",
	})

	TokenRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gesco",
		Subsystem: "auth",
		Name:      "token_rotations_total",
		Help:      "Refresh-token rotation outcomes.",
	}, []string{"result"})

	SessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gesco",
		Subsystem: "auth",
		Name:      "sessions_revoked_total",
		Help:      "Sessions revoked by logout.",
	})
)
