package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Logins = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "moviecatalog", Subsystem: "auth", Name: "logins_total", Help: "Number of successful logins."},
	)
	TokenRotations = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "moviecatalog", Subsystem: "auth", Name: "token_rotations_total", Help: "Number of successful refresh token rotations."},
	)
	ReuseDetections = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "moviecatalog", Subsystem: "auth", Name: "token_reuse_detected_total", Help: "Number of replayed refresh tokens. Nonzero values deserve a look."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(Logins)
	reg.MustRegister(TokenRotations)
	reg.MustRegister(ReuseDetections)
}
