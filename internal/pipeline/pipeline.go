// Package pipeline runs one document-plus-news analysis from upload to
// persisted documents as an explicit sequence of states.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"filing-analyzer/internal/analysis"
	"filing-analyzer/internal/docstore"
	"filing-analyzer/internal/extract"
	"filing-analyzer/internal/shared/metrics"
	"filing-analyzer/internal/shared/telemetry"
	"filing-analyzer/internal/webfetch"
)

const titleTimestamp = "20060102150405"

// DocumentReader extracts text from an upload.
type DocumentReader interface {
	ReadText(ctx context.Context, up extract.Upload) (string, error)
}

// Analyzer runs one analysis per call.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// TickerSearcher finds news links for a ticker.
type TickerSearcher interface {
	SearchTicker(ctx context.Context, ticker string) ([]string, error)
}

// Fetcher downloads and combines page text.
type Fetcher interface {
	FetchAndCombine(ctx context.Context, urls []string) webfetch.Batch
}

// DocumentStore persists results.
type DocumentStore interface {
	Enabled() bool
	ResolveFolder(ctx context.Context, ref string) (docstore.Folder, error)
	Save(ctx context.Context, title, content, folderID string) (docstore.PersistedDocument, error)
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Reader   DocumentReader
	Analyzer Analyzer
	Searcher TickerSearcher
	Fetcher  Fetcher
	Store    DocumentStore
	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Pipeline holds immutable collaborators; runs share nothing else.
type Pipeline struct {
	reader   DocumentReader
	analyzer Analyzer
	searcher TickerSearcher
	fetcher  Fetcher
	store    DocumentStore
	now      func() time.Time
	newID    func() string
}

// New builds a Pipeline.
func New(d Deps) *Pipeline {
	p := &Pipeline{
		reader:   d.Reader,
		analyzer: d.Analyzer,
		searcher: d.Searcher,
		fetcher:  d.Fetcher,
		store:    d.Store,
		now:      d.Now,
		newID:    d.NewID,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	if p.store == nil {
		p.store = docstore.Disabled()
	}
	return p
}

// Input is what the operator supplies for one run.
type Input struct {
	Ticker        string
	Upload        *extract.Upload
	PrimaryKind   analysis.Kind
	SecondaryKind analysis.Kind
	// Folder is a folder id or name; empty means the root.
	Folder string
}

// Report is the outcome of a run.
type Report struct {
	RunID         string                       `json:"runId"`
	Ticker        string                       `json:"ticker"`
	PrimaryKind   analysis.Kind                `json:"analysisType"`
	SecondaryKind analysis.Kind                `json:"searchAnalysisType"`
	Primary       *analysis.Result             `json:"analysis"`
	Secondary     *analysis.Result             `json:"searchAnalysis"`
	SearchURLs    []string                     `json:"searchUrls"`
	FetchedURLs   []string                     `json:"fetchedUrls"`
	FailedURLs    []webfetch.FailedURL         `json:"failedUrls,omitempty"`
	Folder        *docstore.Folder             `json:"folder,omitempty"`
	Documents     []docstore.PersistedDocument `json:"documents"`
	Feedback      []Feedback                   `json:"feedback"`
	State         State                        `json:"state"`
	Awaiting      bool                         `json:"awaitingInput"`
	StartedAt     time.Time                    `json:"startedAt"`
	FinishedAt    time.Time                    `json:"finishedAt"`
}

// Warnings returns the messages at warning level or above.
func (r *Report) Warnings() []string {
	var out []string
	for _, f := range r.Feedback {
		if f.Level == LevelWarning || f.Level == LevelError {
			out = append(out, f.Message)
		}
	}
	return out
}

// Run executes the states in order. A failing step adds feedback and the
// run continues with whatever succeeded. Nothing is retried.
func (p *Pipeline) Run(ctx context.Context, in Input) *Report {
	r := p.newRun(in)
	metrics.IncRunStarted()
	telemetry.Info("run.start", map[string]any{
		"run_id":         r.report.RunID,
		"ticker":         r.report.Ticker,
		"analysis_type":  string(r.report.PrimaryKind),
		"search_type":    string(r.report.SecondaryKind),
		"store_enabled":  p.store.Enabled(),
		"folder_request": in.Folder,
	})

	state := StateAwaitInput
	for state != StateDone {
		if err := ctx.Err(); err != nil {
			r.add(state, LevelError, msgRunCancelled)
			telemetry.Warn("run.cancelled", map[string]any{"run_id": r.report.RunID, "state": state.String(), "error": err.Error()})
			break
		}
		state = r.step(ctx, state)
	}

	r.report.State = state
	r.report.FinishedAt = p.now()
	metrics.IncRunCompleted()
	metrics.ObserveRunDurationMs(float64(r.report.FinishedAt.Sub(r.report.StartedAt).Milliseconds()))
	telemetry.Info("run.complete", map[string]any{
		"run_id":    r.report.RunID,
		"state":     state.String(),
		"documents": len(r.report.Documents),
		"warnings":  len(r.report.Warnings()),
	})
	return r.report
}

type run struct {
	p        *Pipeline
	in       Input
	report   *Report
	text     string
	combined string
}

func (p *Pipeline) newRun(in Input) *run {
	primary := in.PrimaryKind
	if primary == "" {
		primary = analysis.KindFinancial
	}
	secondary := in.SecondaryKind
	if secondary == "" {
		secondary = analysis.KindFinancial
	}
	return &run{
		p:  p,
		in: in,
		report: &Report{
			RunID:         p.newID(),
			Ticker:        strings.ToUpper(strings.TrimSpace(in.Ticker)),
			PrimaryKind:   primary,
			SecondaryKind: secondary,
			SearchURLs:    []string{},
			FetchedURLs:   []string{},
			Documents:     []docstore.PersistedDocument{},
			Feedback:      []Feedback{},
			StartedAt:     p.now(),
		},
	}
}

func (r *run) step(ctx context.Context, s State) State {
	switch s {
	case StateAwaitInput:
		return r.awaitInput(ctx)
	case StateExtract:
		return r.extract(ctx)
	case StatePrimaryAnalysis:
		return r.primaryAnalysis(ctx)
	case StateSearch:
		return r.search(ctx)
	case StateFetch:
		return r.fetch(ctx)
	case StateSecondaryAnalysis:
		return r.secondaryAnalysis(ctx)
	case StatePersist:
		return r.persist(ctx)
	default:
		return StateDone
	}
}

func (r *run) add(step State, level Level, msg string) {
	r.report.Feedback = append(r.report.Feedback, Feedback{Step: step, Level: level, Message: msg})
	fields := map[string]any{"run_id": r.report.RunID, "step": step.String(), "message": msg}
	switch level {
	case LevelError:
		metrics.IncStepFailure(step.String())
		telemetry.Error("run.feedback", fields)
	case LevelWarning:
		telemetry.Warn("run.feedback", fields)
	default:
		telemetry.Info("run.feedback", fields)
	}
}

func (r *run) awaitInput(_ context.Context) State {
	up := r.in.Upload
	if r.report.Ticker != "" && up != nil && len(up.Data) > 0 {
		return StateExtract
	}
	r.report.Awaiting = true
	r.add(StateAwaitInput, LevelWarning, msgAwaitingInput)
	if r.p.store.Enabled() {
		r.add(StateAwaitInput, LevelInfo, msgStoreReady)
	} else {
		r.add(StateAwaitInput, LevelWarning, StoreDisabledMessage)
	}
	return StateDone
}

func (r *run) extract(ctx context.Context) State {
	text, err := r.p.reader.ReadText(ctx, *r.in.Upload)
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		r.add(StateExtract, LevelError, msgUnsupportedFormat)
	case err != nil:
		r.add(StateExtract, LevelError, fmt.Sprintf(msgReadFailed, err))
	case strings.TrimSpace(text) == "":
		r.add(StateExtract, LevelWarning, msgNoText)
	default:
		r.text = text
	}
	return StatePrimaryAnalysis
}

func (r *run) primaryAnalysis(ctx context.Context) State {
	if r.text == "" {
		return StateSearch
	}
	r.report.Primary = r.analyze(ctx, StatePrimaryAnalysis, r.text, r.report.PrimaryKind)
	return StateSearch
}

func (r *run) search(ctx context.Context) State {
	urls, err := r.p.searcher.SearchTicker(ctx, r.report.Ticker)
	if err != nil || len(urls) == 0 {
		r.add(StateSearch, LevelError, msgSearchFailed)
		return StatePersist
	}
	r.report.SearchURLs = urls
	return StateFetch
}

func (r *run) fetch(ctx context.Context) State {
	batch := r.p.fetcher.FetchAndCombine(ctx, r.report.SearchURLs)
	if batch.Fetched != nil {
		r.report.FetchedURLs = batch.Fetched
	}
	r.report.FailedURLs = batch.Failed
	metrics.AddPageFetchFailures(len(batch.Failed))
	for _, f := range batch.Failed {
		r.add(StateFetch, LevelWarning, fmt.Sprintf(msgFetchURLFailed, f.URL, f.Error))
	}
	if strings.TrimSpace(batch.Text) == "" {
		r.add(StateFetch, LevelError, msgFetchEmpty)
		return StatePersist
	}
	r.combined = batch.Text
	return StateSecondaryAnalysis
}

func (r *run) secondaryAnalysis(ctx context.Context) State {
	kind := r.report.SecondaryKind
	if !kind.Secondary() {
		metrics.IncAnalysisFailed()
		r.add(StateSecondaryAnalysis, LevelError, analysis.InvalidKindText)
		return StatePersist
	}
	r.report.Secondary = r.analyze(ctx, StateSecondaryAnalysis, r.combined, kind)
	return StatePersist
}

// analyze maps every failure, including an unknown kind, to a nil result.
func (r *run) analyze(ctx context.Context, step State, text string, kind analysis.Kind) *analysis.Result {
	res, err := r.p.analyzer.Analyze(ctx, analysis.Request{Text: text, Kind: kind})
	switch {
	case errors.Is(err, analysis.ErrInvalidKind):
		metrics.IncAnalysisFailed()
		r.add(step, LevelError, analysis.InvalidKindText)
		return nil
	case err != nil || res == nil || strings.TrimSpace(res.Text) == "":
		metrics.IncAnalysisFailed()
		r.add(step, LevelError, msgAnalysisFailed)
		return nil
	}
	metrics.IncAnalysisCompleted()
	return res
}

func (r *run) persist(ctx context.Context) State {
	if !r.p.store.Enabled() {
		r.add(StatePersist, LevelWarning, StoreDisabledMessage)
		return StateDone
	}
	if r.report.Primary == nil && r.report.Secondary == nil {
		r.add(StatePersist, LevelWarning, msgNothingToSave)
		return StateDone
	}
	folder, err := r.p.store.ResolveFolder(ctx, r.in.Folder)
	if err != nil {
		r.add(StatePersist, LevelError, fmt.Sprintf(msgFolderFailed, err))
		return StateDone
	}
	r.report.Folder = &folder

	ts := r.p.now().Format(titleTimestamp)
	ticker := r.report.Ticker

	if res := r.report.Primary; res != nil {
		label := res.Kind.Capitalized()
		title := fmt.Sprintf("%s_%s_Analysis_%s", ticker, label, ts)
		doc, err := r.p.store.Save(ctx, title, res.Text, folder.ID)
		switch {
		case errors.Is(err, docstore.ErrCreateFailed):
			r.add(StatePersist, LevelError, fmt.Sprintf(msgAnalysisCreateFail, label))
		case err != nil:
			r.add(StatePersist, LevelError, fmt.Sprintf(msgAnalysisSaveFailed, label))
		default:
			r.saved(doc)
			r.add(StatePersist, LevelSuccess, fmt.Sprintf(msgAnalysisSaved, label, doc.FileID, folder.Name))
		}
	}

	if res := r.report.Secondary; res != nil {
		title := fmt.Sprintf("%s_News_%s_%s", ticker, res.Kind, ts)
		doc, err := r.p.store.Save(ctx, title, res.Text, folder.ID)
		switch {
		case errors.Is(err, docstore.ErrCreateFailed):
			r.add(StatePersist, LevelError, msgSearchCreateFailed)
		case err != nil:
			r.add(StatePersist, LevelError, msgSearchSaveFailed)
		default:
			r.saved(doc)
			r.add(StatePersist, LevelSuccess, fmt.Sprintf(msgSearchSaved, doc.FileID, folder.Name))
		}
	}
	return StateDone
}

func (r *run) saved(doc docstore.PersistedDocument) {
	metrics.IncDocumentPersisted()
	r.report.Documents = append(r.report.Documents, doc)
}
