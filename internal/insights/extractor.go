// Package insights extracts discussion topics and actionable items from a
// transcript. Both extractions are independent and degrade to an empty list.
package insights

import (
	"context"

	"github.com/sirupsen/logrus"

	"lead-insights-go/internal/completion"
	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/metrics"
	"lead-insights-go/internal/parse"
	"lead-insights-go/internal/prompts"
)

type Extractor struct {
	completer completion.Completer
	log       *logrus.Entry
}

func New(completer completion.Completer, log *logger.Logger) *Extractor {
	return &Extractor{completer: completer, log: log.WithComponent("insights")}
}

// Topics returns up to ~5 short topic strings; empty on any failure.
func (e *Extractor) Topics(ctx context.Context, transcript string) []string {
	raw, err := e.completer.Complete(ctx, prompts.Topics(transcript))
	if err != nil {
		e.log.WithError(err).Warn("topic extraction failed, returning empty list")
		metrics.DegradedSignals.WithLabelValues("topics").Inc()
		return []string{}
	}
	return parse.StringList(raw, "topics")
}

// Actions returns actionable items restricted to the fixed vocabulary;
// entries outside it are rejected at the parse boundary.
func (e *Extractor) Actions(ctx context.Context, transcript string) []string {
	raw, err := e.completer.Complete(ctx, prompts.Actions(transcript))
	if err != nil {
		e.log.WithError(err).Warn("action extraction failed, returning empty list")
		metrics.DegradedSignals.WithLabelValues("actions").Inc()
		return []string{}
	}
	return parse.FilterActions(parse.StringList(raw, "actions"))
}
