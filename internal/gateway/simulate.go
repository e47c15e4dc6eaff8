package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// simulatedModel is the model name reported for offline replies.
const simulatedModel = "offline-simulation"

// simulation reply categories, selected by persona marker substrings found
// in the system prompt. Same input always selects the same category and text.
const (
	simSampler = `On your question %q, here is my sampling recommendation:

1. Placement: choose a well-ventilated point 3-5 m from the livestock activity area.
2. Timing: sample between 09:00 and 11:00, when aerosol concentration is most stable.
3. Settings: run the aerosol sampler at 200 L/min for 30 minutes.
4. Handling: verify the seal before sampling, record temperature and humidity, and refrigerate samples immediately afterwards.

Share the site details if you need a full sampling plan.`

	simAnalyst = `Here is my read of the detection data behind %q:

- The sample Ct value of 28.5 sits in the borderline-positive band; schedule a retest to confirm.
- The amplification curve shows the expected sigmoid shape.
- Negative and positive controls both passed; the internal reference gene is stable.

Next steps: collect additional samples for verification, widen monitoring to neighbouring areas, and tighten biosecurity. A formal report can follow within 24 hours.`

	simScout = `Latest intelligence relevant to %q:

- Domestic: the agriculture ministry's newest surveillance bulletin reports a stable situation overall.
- Americas: a novel variant detected in Kansas is under close observation; Brazil reports progress containing avian influenza.
- Policy: updated animal-epidemic prevention rules took effect this month, and border inspection of livestock imports has been tightened.
- Research: a candidate African swine fever vaccine has entered trials, alongside a new rapid test kit.

I recommend following the weekly WHO and WOAH situation reports.`

	simReporter = `Draft brief for %q:

Findings: monitoring volume is on plan; one borderline detection is pending retest; no site exceeded alert thresholds today.
Trends: aerosol positivity is flat week over week; environmental readings remain within seasonal norms.
Recommendations: confirm the pending retest within 24 hours, keep the current sampling cadence, and review threshold settings at the next weekly sync.`

	simGeneric = `Thanks for your question %q!

I am the assistant of the disease-surveillance platform. I can currently help with:
- live monitoring-data queries
- global outbreak intelligence
- detection report interpretation
- automated surveillance briefs

For specialist help, address one of the expert agents: the Sampling Expert for aerosol sampling, the Assay Analyst for detection data, the Intelligence Officer for sector news, or the Report Assistant for briefs and recommendations.`
)

// simulatedReply picks the canned reply category for the given conversation.
// The system prompt is inspected for persona marker substrings.
func simulatedReply(messages []Message) string {
	var systemPrompt, userMessage string
	if len(messages) > 0 && messages[0].Role == "system" {
		systemPrompt = messages[0].Content
	}
	if len(messages) > 0 {
		userMessage = messages[len(messages)-1].Content
	}

	var tpl string
	switch {
	case strings.Contains(systemPrompt, "Sampling Expert"):
		tpl = simSampler
	case strings.Contains(systemPrompt, "Assay Analyst"):
		tpl = simAnalyst
	case strings.Contains(systemPrompt, "Intelligence Officer"):
		tpl = simScout
	case strings.Contains(systemPrompt, "Report Assistant"):
		tpl = simReporter
	default:
		tpl = simGeneric
	}
	return fmt.Sprintf(tpl, userMessage)
}

func (c *Client) simulateComplete(ctx context.Context, messages []Message) (Completion, error) {
	start := time.Now()
	if err := sleepCtx(ctx, c.simLatency); err != nil {
		return Completion{}, err
	}

	content := simulatedReply(messages)
	promptChars := 0
	for _, m := range messages {
		promptChars += len(m.Content)
	}
	return Completion{
		Content: content,
		Model:   simulatedModel,
		Usage: Usage{
			Prompt:     promptChars,
			Completion: len(content),
			Total:      promptChars + len(content),
		},
		Latency: time.Since(start),
	}, nil
}

// simulateStream emits the canned reply in small chunks, spreading the
// configured artificial latency across them.
func (c *Client) simulateStream(ctx context.Context, messages []Message) *Stream {
	streamCtx, cancel := context.WithCancel(ctx)
	s := &Stream{
		events: make(chan streamEvent),
		cancel: cancel,
	}

	go func() {
		defer close(s.events)

		content := simulatedReply(messages)
		chunks := chunkRunes(content, 24)
		var perChunk time.Duration
		if len(chunks) > 0 {
			perChunk = c.simLatency / time.Duration(len(chunks))
		}

		for _, chunk := range chunks {
			if err := sleepCtx(streamCtx, perChunk); err != nil {
				return
			}
			if !s.send(streamCtx, streamEvent{delta: Delta{Content: chunk, Model: simulatedModel}}) {
				return
			}
		}
		s.send(streamCtx, streamEvent{delta: Delta{Done: true}})
	}()
	return s
}

func chunkRunes(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
