package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Context carries optional structured hints for a single turn. It is rendered
// into the system prompt and not persisted on its own.
type Context struct {
	Topic          string          `json:"topic,omitempty"`
	SiteID         string          `json:"siteId,omitempty"`
	MonitoringData json.RawMessage `json:"monitoringData,omitempty"`
	AlertInfo      json.RawMessage `json:"alertInfo,omitempty"`
}

func (c *Context) empty() bool {
	return c == nil ||
		(c.Topic == "" && c.SiteID == "" && len(c.MonitoringData) == 0 && len(c.AlertInfo) == 0)
}

// BuildSystemPrompt composes the system prompt for one turn: the persona's
// template, an optional context block, and a closing directive. Context
// fields are rendered in a fixed order (site id, monitoring data, alert info,
// topic) with absent fields skipped; callers and tests depend on that exact
// ordering.
func (r *Registry) BuildSystemPrompt(personaID string, ctx *Context) (string, error) {
	p, err := r.Get(personaID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(p.SystemPrompt)

	if !ctx.empty() {
		sb.WriteString("\n\n[Current Context]\n")
		if ctx.SiteID != "" {
			fmt.Fprintf(&sb, "- Site ID: %s\n", ctx.SiteID)
		}
		if len(ctx.MonitoringData) > 0 {
			fmt.Fprintf(&sb, "- Monitoring data: %s\n", compactJSON(ctx.MonitoringData))
		}
		if len(ctx.AlertInfo) > 0 {
			fmt.Fprintf(&sb, "- Alert info: %s\n", compactJSON(ctx.AlertInfo))
		}
		if ctx.Topic != "" {
			fmt.Fprintf(&sb, "- Topic: %s\n", ctx.Topic)
		}
	}

	fmt.Fprintf(&sb, "\n\nRemember: you are %s (%s). Respond in the first person.", p.Name, p.Title)
	return sb.String(), nil
}

func compactJSON(raw json.RawMessage) string {
	var buf strings.Builder
	if err := compactInto(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func compactInto(buf *strings.Builder, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
