package extension

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxCallLabels bounds the distinct call names exported on calls_total.
// Names seen after the limit is reached share otherCallLabel.
const (
	maxCallLabels  = 64
	otherCallLabel = "other"
)

type metrics struct {
	calls        *prometheus.CounterVec
	initDuration *prometheus.HistogramVec

	mu         sync.Mutex
	callLabels map[string]struct{}
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		callLabels: make(map[string]struct{}, maxCallLabels),
		calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "panel",
				Subsystem: "extension",
				Name:      "calls_total",
				Help:      "Extension calls dispatched through the registry.",
			},
			[]string{"call", "handled"},
		),
		initDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "panel",
				Subsystem: "extension",
				Name:      "init_duration_seconds",
				Help:      "Time spent in each extension's boot hooks.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"extension"},
		),
	}
}

func (m *metrics) recordCall(name string, handled bool) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(m.callLabel(name), strconv.FormatBool(handled)).Inc()
}

func (m *metrics) callLabel(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.callLabels[name]; ok {
		return name
	}
	if len(m.callLabels) >= maxCallLabels {
		return otherCallLabel
	}
	m.callLabels[name] = struct{}{}
	return name
}

func (m *metrics) recordInit(identifier string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.initDuration.WithLabelValues(identifier).Observe(elapsed.Seconds())
}
