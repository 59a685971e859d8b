package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	availabilityRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termino",
			Name:      "availability_requests_total",
			Help:      "Count of availability computations by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	slotsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "termino",
			Name:      "availability_slots_generated_total",
			Help:      "Count of candidate slots emitted by the generator.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(availabilityRequests, slotsGenerated)
	})
}

func IncRequest(mode, outcome string) {
	availabilityRequests.WithLabelValues(mode, outcome).Inc()
}

func AddSlots(n int) {
	slotsGenerated.Add(float64(n))
}
