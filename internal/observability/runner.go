package observability

import (
	"context"
	"errors"
	"time"

	"github.com/michaelbrown/carcin-play/internal/carcin"
)

// Run outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeExitError    = "exit_error"
	OutcomeNetworkError = "network_error"
	OutcomeServiceError = "service_error"
	OutcomeMalformed    = "malformed"
	OutcomeError        = "error"
)

// Language labels for runs outside the known set.
const (
	LanguageUnknown = "unknown"
	LanguageOther   = "other"
)

// InstrumentedRunner records metrics around another Runner. Only languages
// in Languages get their own label value; the rest count as LanguageOther.
type InstrumentedRunner struct {
	Next      carcin.Runner
	Languages map[string]bool
}

// Instrument wraps next, labelling runs in the given languages by name.
func Instrument(next carcin.Runner, languages ...string) *InstrumentedRunner {
	known := make(map[string]bool, len(languages))
	for _, l := range languages {
		if l != "" {
			known[l] = true
		}
	}
	return &InstrumentedRunner{Next: next, Languages: known}
}

func (r *InstrumentedRunner) languageLabel(opts carcin.Options) string {
	language := opts.Language()
	switch {
	case language == "":
		return LanguageUnknown
	case r.Languages[language]:
		return language
	default:
		return LanguageOther
	}
}

func (r *InstrumentedRunner) Submit(ctx context.Context, code string, opts carcin.Options) (*carcin.Run, error) {
	language := r.languageLabel(opts)

	RunsInFlight.Inc()
	defer RunsInFlight.Dec()

	start := time.Now()
	run, err := r.Next.Submit(ctx, code, opts)
	RunDuration.WithLabelValues(language).Observe(time.Since(start).Seconds())
	RunRequestsTotal.WithLabelValues(language, Outcome(run, err)).Inc()

	return run, err
}

// Outcome classifies a run result for the outcome label.
func Outcome(run *carcin.Run, err error) string {
	var (
		netErr       *carcin.NetworkError
		svcErr       *carcin.ServiceError
		malformedErr *carcin.MalformedResponseError
	)
	switch {
	case err == nil && run != nil && run.Succeeded():
		return OutcomeOK
	case err == nil && run != nil:
		return OutcomeExitError
	case errors.As(err, &netErr):
		return OutcomeNetworkError
	case errors.As(err, &svcErr):
		return OutcomeServiceError
	case errors.As(err, &malformedErr):
		return OutcomeMalformed
	default:
		return OutcomeError
	}
}
