package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "club"

// Metrics holds the service counters. A nil *Metrics is valid and records nothing,
// which keeps tests free of registry setup.
type Metrics struct {
	statusTransitions *prometheus.CounterVec
	scheduleLookups   *prometheus.CounterVec
	attendanceWrites  prometheus.Counter
	attendanceDenied  *prometheus.CounterVec
	plansCreated      *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_status_transitions_total",
			Help:      "Training plan status changes by source and target status.",
		}, []string{"from", "to"}),
		scheduleLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_lookups_total",
			Help:      "Booking lookups made to resolve plan schedules, by outcome.",
		}, []string{"outcome"}),
		attendanceWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_records_written_total",
			Help:      "Attendance records upserted.",
		}),
		attendanceDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_writes_denied_total",
			Help:      "Rejected attendance writes by reason.",
		}, []string{"reason"}),
		plansCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_created_total",
			Help:      "Training plans created, by creation path.",
		}, []string{"path"}),
	}

	for _, c := range []prometheus.Collector{
		m.statusTransitions, m.scheduleLookups, m.attendanceWrites, m.attendanceDenied, m.plansCreated,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) StatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

// ScheduleLookup records the outcome of one schedule resolution
// ("resolved", "failed").
func (m *Metrics) ScheduleLookup(outcome string) {
	if m == nil {
		return
	}
	m.scheduleLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AttendanceWritten(n int) {
	if m == nil {
		return
	}
	m.attendanceWrites.Add(float64(n))
}

func (m *Metrics) AttendanceDenied(reason string) {
	if m == nil {
		return
	}
	m.attendanceDenied.WithLabelValues(reason).Inc()
}

func (m *Metrics) PlanCreated(path string) {
	if m == nil {
		return
	}
	m.plansCreated.WithLabelValues(path).Inc()
}
