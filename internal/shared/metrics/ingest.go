package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestMetrics agrupa os coletores do pipeline de ingestão
type IngestMetrics struct {
	Runs        *prometheus.CounterVec // por status: complete | aborted | failed
	Outcomes    *prometheus.CounterVec // por kind: inserted | updated | failed
	Errors      *prometheus.CounterVec // por estágio: fetch | parse | schema | storage | sink_*
	RunDuration prometheus.Histogram
}

func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	m := &IngestMetrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odds_ingest_runs_total",
			Help: "execuções do pipeline por status",
		}, []string{"status"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odds_ingest_candidate_outcomes_total",
			Help: "resultados por candidato",
		}, []string{"kind"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odds_ingest_errors_total",
			Help: "erros por estágio",
		}, []string{"stage"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "odds_ingest_run_duration_seconds",
			Help:    "duração de cada execução (fetch até o último write)",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.Runs, m.Outcomes, m.Errors, m.RunDuration)
	return m
}
