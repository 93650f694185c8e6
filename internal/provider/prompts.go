package provider

import (
	"fmt"
	"strings"

	"github.com/loglens/loglens/internal/model"
)

// focusPrompts maps a Focus to the instruction fragment injected into the
// system prompt, mirroring the original SystemPromptGenerator's per-focus
// guidance.
var focusPrompts = map[model.Focus]string{
	model.FocusErrors:        "Pay special attention to error conditions, exceptions, and failure patterns.",
	model.FocusPerformance:   "Pay special attention to latency, throughput, and resource exhaustion signals.",
	model.FocusSecurity:      "Pay special attention to authentication failures, authorization denials, and suspicious access patterns.",
	model.FocusConfiguration: "Pay special attention to configuration loading, missing settings, and environment mismatches.",
	model.FocusUserActivity:  "Pay special attention to user-initiated actions and their outcomes.",
	model.FocusSystemEvents:  "Pay special attention to lifecycle events: startup, shutdown, restarts, and health checks.",
}

// GenerateSystemPrompt builds the deterministic system prompt for a
// request: a fixed preamble, the analysis focus instructions (in request
// order), and the optional user context.
func GenerateSystemPrompt(payload []model.LogEntry, userContext string, focus []model.Focus) string {
	var b strings.Builder
	b.WriteString("You are LogLens, an expert log analysis assistant. ")
	b.WriteString("You will be given a sequence of log entries and must produce a structured incident analysis ")
	b.WriteString("as a single JSON object with fields: sequence_of_events, root_cause, recommendations, confidence, ")
	b.WriteString("related_errors, unrelated_errors. Respond with JSON only.\n")

	for _, f := range focus {
		if instr, ok := focusPrompts[f]; ok {
			b.WriteString(instr)
			b.WriteString("\n")
		} else if strings.HasPrefix(string(f), "custom:") {
			fmt.Fprintf(&b, "Pay special attention to: %s\n", strings.TrimPrefix(string(f), "custom:"))
		}
	}

	if userContext != "" {
		b.WriteString("Additional context from the user: ")
		b.WriteString(userContext)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "The log excerpt contains %d entries.\n", len(payload))
	return b.String()
}

// CreateAnalysisPrompt formats the log evidence as the user-turn prompt.
func CreateAnalysisPrompt(payload []model.LogEntry) string {
	var b strings.Builder
	b.WriteString("Analyze the following log entries:\n\n")
	for _, e := range payload {
		if e.Timestamp != nil {
			fmt.Fprintf(&b, "[%s] ", e.Timestamp.Format("2006-01-02T15:04:05"))
		}
		if e.HasLevel() {
			fmt.Fprintf(&b, "%s ", e.LevelName)
		}
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	return b.String()
}
