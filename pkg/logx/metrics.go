package logx

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink counts accepted records per level.
type MetricsSink struct {
	Filter

	name    string
	records *prometheus.CounterVec
}

// NewMetricsSink registers logbridge_records_total{sink,level} on reg
// (prometheus.DefaultRegisterer when nil). Several sinks share the collector.
func NewMetricsSink(name string, reg prometheus.Registerer) (*MetricsSink, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "logbridge",
		Name:      "records_total",
		Help:      "Log records accepted by a sink, by level.",
	}, []string{"sink", "level"})
	if err := reg.Register(records); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		records = existing
	}
	return &MetricsSink{name: name, records: records}, nil
}

func (s *MetricsSink) Name() string { return s.name }

func (s *MetricsSink) Write(r Record) error {
	s.records.WithLabelValues(s.name, r.Level.String()).Inc()
	return nil
}

// Counter exposes the per-level counter for this sink.
func (s *MetricsSink) Counter(level Level) prometheus.Counter {
	return s.records.WithLabelValues(s.name, level.String())
}
