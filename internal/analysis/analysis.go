package analysis

import (
	"context"
	"errors"
	"fmt"

	"filing-analyzer/internal/llm"
	"filing-analyzer/internal/shared/telemetry"
)

// InvalidKindText is the result text returned for an unknown kind.
const InvalidKindText = "Invalid analysis type."

// ErrInvalidKind is returned alongside InvalidKindText.
var ErrInvalidKind = errors.New("invalid analysis type")

// Request is one piece of text to analyze with one kind.
type Request struct {
	Text string
	Kind Kind
}

// Result is the model output. Text is always the raw reply; SWOT and Chart
// are set only when the reply for that kind decodes.
type Result struct {
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`
	SWOT  *SWOT  `json:"swot,omitempty"`
	Chart *Chart `json:"chart,omitempty"`
}

// Client turns analysis requests into prompts and sends them to the model.
type Client struct {
	completer llm.Completer
}

// NewClient returns a Client backed by completer.
func NewClient(completer llm.Completer) *Client {
	return &Client{completer: completer}
}

// Analyze makes exactly one model call for a valid kind. An unknown kind
// returns InvalidKindText with ErrInvalidKind and makes no call. Provider
// failures return a nil result.
func (c *Client) Analyze(ctx context.Context, req Request) (*Result, error) {
	prompt, ok := BuildPrompt(req.Kind, req.Text)
	if !ok {
		return &Result{Kind: req.Kind, Text: InvalidKindText}, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}
	text, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		telemetry.Error("analysis.failed", map[string]any{
			"kind":  string(req.Kind),
			"error": err.Error(),
		})
		return nil, fmt.Errorf("analyze %s: %w", req.Kind, err)
	}
	telemetry.Info("analysis.complete", map[string]any{
		"kind":         string(req.Kind),
		"input_chars":  len(req.Text),
		"output_chars": len(text),
	})
	res := &Result{Kind: req.Kind, Text: text}
	structure(res)
	return res, nil
}

func structure(res *Result) {
	var err error
	switch res.Kind {
	case KindSWOT:
		var v SWOT
		if v, err = ParseSWOT(res.Text); err == nil {
			res.SWOT = &v
		}
	case KindChart:
		var v Chart
		if v, err = ParseChart(res.Text); err == nil {
			res.Chart = &v
		}
	}
	if err != nil {
		telemetry.Warn("analysis.unstructured", map[string]any{
			"kind":  string(res.Kind),
			"error": err.Error(),
		})
	}
}
