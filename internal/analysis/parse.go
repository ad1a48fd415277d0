package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SWOT is the structured form of a swot result.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// Metric is one named series from a chart result.
type Metric struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Chart is the structured form of a chart result.
type Chart struct {
	Metrics []Metric `json:"metrics"`
}

// ParseSWOT decodes a swot result for display. The raw result is untouched.
func ParseSWOT(raw string) (SWOT, error) {
	var out SWOT
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &out); err != nil {
		return SWOT{}, fmt.Errorf("parse swot: %w", err)
	}
	return out, nil
}

// ParseChart decodes a chart result for display. Values the model returns
// as strings ("$1,200", "12%") are converted; anything else is dropped.
func ParseChart(raw string) (Chart, error) {
	var decoded struct {
		Metrics []struct {
			Name   string `json:"name"`
			Values []any  `json:"values"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &decoded); err != nil {
		return Chart{}, fmt.Errorf("parse chart: %w", err)
	}
	out := Chart{Metrics: make([]Metric, 0, len(decoded.Metrics))}
	for _, m := range decoded.Metrics {
		metric := Metric{Name: m.Name, Values: make([]float64, 0, len(m.Values))}
		for _, v := range m.Values {
			if f, ok := toFloat(v); ok {
				metric.Values = append(metric.Values, f)
			}
		}
		out.Metrics = append(out.Metrics, metric)
	}
	return out, nil
}

// cleanJSON strips the markdown fences models like to wrap JSON in.
func cleanJSON(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(t)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
