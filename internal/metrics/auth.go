package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de autenticación y reconciliación. Paquete aparte para evitar
// ciclos de import entre servicios y HTTP.

var (
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Accesos exitosos por provider",
	}, []string{"provider"})

	LoginFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_failures_total",
		Help: "Accesos fallidos por kind de error normalizado",
	}, []string{"kind"})

	ConflictsDetected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_conflicts_detected_total",
		Help: "Conflictos de cuenta detectados",
	})

	ConflictsResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_conflicts_resolved_total",
		Help: "Conflictos resueltos con vinculación exitosa",
	})

	LinksCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_links_total",
		Help: "Vinculaciones de provider completadas",
	}, []string{"provider"})

	SyncFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profile_sync_failures_total",
		Help: "Syncs de perfil fallidos por store no disponible (acceso degradado)",
	})

	SyncLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "profile_sync_latency_ms",
		Help:    "Latencia del sync de perfil en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// Register registra las métricas en el registry dado (default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		Logins, LoginFailures, ConflictsDetected, ConflictsResolved,
		LinksCompleted, SyncFailures, SyncLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
