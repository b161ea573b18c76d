// Package metrics exposes Prometheus counters for the voting flow.
// Counters never carry user or signature labels.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricVotesAccepted   = "ballot_votes_accepted_total"
	MetricVotesDenied     = "ballot_votes_denied_total"
	MetricEmptySubmits    = "ballot_votes_empty_total"
	MetricSimpleVotes     = "ballot_simple_votes_total"
	MetricArchiveExports  = "ballot_archive_exports_total"
	MetricArchiveFailures = "ballot_archive_export_failures_total"
)

// Recorder groups the counters. A nil *Recorder records nothing, so
// services can be built without metrics in tests.
type Recorder struct {
	votesAccepted   prometheus.Counter
	votesDenied     *prometheus.CounterVec
	emptySubmits    prometheus.Counter
	simpleVotes     prometheus.Counter
	archiveExports  prometheus.Counter
	archiveFailures prometheus.Counter
}

// NewRecorder creates the counters and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		votesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricVotesAccepted,
			Help: "Anonymous ballots accepted",
		}),
		votesDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricVotesDenied,
			Help: "Eligibility denials by reason",
		}, []string{"reason"}),
		emptySubmits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEmptySubmits,
			Help: "Submissions that carried no valid selection",
		}),
		simpleVotes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSimpleVotes,
			Help: "Legacy counter increments",
		}),
		archiveExports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricArchiveExports,
			Help: "Archived ballot results written to object storage",
		}),
		archiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricArchiveFailures,
			Help: "Archive exports that failed",
		}),
	}
	reg.MustRegister(r.votesAccepted, r.votesDenied, r.emptySubmits, r.simpleVotes, r.archiveExports, r.archiveFailures)
	return r
}

func (r *Recorder) VoteAccepted() {
	if r != nil {
		r.votesAccepted.Inc()
	}
}

func (r *Recorder) VoteDenied(reason string) {
	if r != nil {
		r.votesDenied.WithLabelValues(reason).Inc()
	}
}

func (r *Recorder) EmptySubmit() {
	if r != nil {
		r.emptySubmits.Inc()
	}
}

func (r *Recorder) SimpleVote() {
	if r != nil {
		r.simpleVotes.Inc()
	}
}

func (r *Recorder) ArchiveExport(err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.archiveFailures.Inc()
		return
	}
	r.archiveExports.Inc()
}

// Serve exposes g on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
