package analysis

import _ "embed"

var (
	//go:embed prompts/financial.txt
	promptFinancial string
	//go:embed prompts/swot.txt
	promptSWOT string
	//go:embed prompts/summary.txt
	promptSummary string
	//go:embed prompts/chart.txt
	promptChart string
)

var templates = map[Kind]string{
	KindFinancial: promptFinancial,
	KindSWOT:      promptSWOT,
	KindSummary:   promptSummary,
	KindChart:     promptChart,
}

// BuildPrompt returns the template for kind followed by text, and whether
// the kind was recognized.
func BuildPrompt(kind Kind, text string) (string, bool) {
	tpl, ok := templates[kind]
	if !ok {
		return "", false
	}
	return tpl + text, true
}
