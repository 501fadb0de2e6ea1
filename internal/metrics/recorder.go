package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Record kinds counted by RecordKind.
const (
	KindBlank    = "blank"
	KindPassFail = "pass_fail"
	KindScored   = "scored"
	KindInvalid  = "invalid"
)

// Recorder collects the counters of one generation run on a private
// registry. A nil *Recorder records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	records     *prometheus.CounterVec
	scored      *prometheus.CounterVec
	dailyGrades prometheus.Counter
	sheets      prometheus.Counter
	runDuration prometheus.Gauge
}

// NewRecorder registers the run counters on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_records_total",
			Help: "Student records produced, by kind.",
		}, []string{"kind"}),
		scored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_scored_total",
			Help: "Synthesized score breakdowns, by aggregate mark.",
		}, []string{"mark"}),
		dailyGrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_daily_grades_total",
			Help: "Daily lesson grades placed.",
		}),
		sheets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_sheets_written_total",
			Help: "Journal sheets written.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journal_run_duration_seconds",
			Help: "Wall time of the last generation run.",
		}),
	}
	r.registry.MustRegister(r.records, r.scored, r.dailyGrades, r.sheets, r.runDuration)
	return r
}

func (r *Recorder) RecordKind(kind string) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(kind).Inc()
}

func (r *Recorder) Scored(mark int) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(KindScored).Inc()
	r.scored.WithLabelValues(strconv.Itoa(mark)).Inc()
}

func (r *Recorder) DailyGrades(n int) {
	if r == nil {
		return
	}
	r.dailyGrades.Add(float64(n))
}

func (r *Recorder) SheetWritten() {
	if r == nil {
		return
	}
	r.sheets.Inc()
}

func (r *Recorder) RunFinished(d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Set(d.Seconds())
}

// Registry exposes the underlying registry for inspection.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the collected metrics in the text exposition format,
// suitable for the node exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
