// Package engagement derives conversational-dynamics metrics from a
// transcript via four concurrent prompt-based sub-analyses. Each metric
// falls back independently; one failed sub-call never blocks the others.
package engagement

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"lead-insights-go/internal/completion"
	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/metrics"
	"lead-insights-go/internal/parse"
	"lead-insights-go/internal/prompts"
	"lead-insights-go/internal/types"
)

type Analyzer struct {
	completer completion.Completer
	log       *logrus.Entry
}

func New(completer completion.Completer, log *logger.Logger) *Analyzer {
	return &Analyzer{completer: completer, log: log.WithComponent("engagement")}
}

// Analyze issues the four sub-analyses concurrently and joins them. A failed
// or unparseable sub-call yields that signal's fallback: 0 interruptions, 1
// for the ratio-like signals, pace clamped to 1..5.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) types.EngagementMetrics {
	var (
		wg            sync.WaitGroup
		interruptions string
		pace          string
		talkListen    string
		turns         string
	)

	run := func(prompt string, out *string, signal string) {
		defer wg.Done()
		raw, err := a.completer.Complete(ctx, prompt)
		if err != nil {
			a.log.WithError(err).WithField("signal", signal).Warn("sub-analysis failed, using fallback")
			metrics.DegradedSignals.WithLabelValues(signal).Inc()
			return
		}
		*out = raw
	}

	wg.Add(4)
	go run(prompts.Interruptions(transcript), &interruptions, "interruptions")
	go run(prompts.Pace(transcript), &pace, "speech_pace")
	go run(prompts.TalkListen(transcript), &talkListen, "talk_to_listen_ratio")
	go run(prompts.TurnCount(transcript), &turns, "turn_taking_frequency")
	wg.Wait()

	m := types.EngagementMetrics{
		TalkToListenRatio:   parse.Number(talkListen, 1),
		TurnTakingFrequency: parse.Integer(turns, 1),
		Interruptions:       parse.Integer(interruptions, 0),
		SpeechPace:          parse.ClampInt(parse.Integer(pace, 1), 1, 5),
	}
	if m.TalkToListenRatio < 0 {
		m.TalkToListenRatio = 1
	}
	if m.TurnTakingFrequency < 0 {
		m.TurnTakingFrequency = 1
	}
	if m.Interruptions < 0 {
		m.Interruptions = 0
	}
	return m
}
