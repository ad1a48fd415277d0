package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filing-analyzer/internal/analysis"
	"filing-analyzer/internal/docstore"
	"filing-analyzer/internal/extract"
	"filing-analyzer/internal/extract/extracttest"
	"filing-analyzer/internal/webfetch"
)

var fixedNow = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

type recordingCompleter struct {
	prompts []string
	replies map[string]string
	err     error
}

// Complete answers by the first line of the prompt so each template gets
// a distinguishable reply.
func (c *recordingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	for prefix, reply := range c.replies {
		if strings.HasPrefix(prompt, prefix) {
			return reply, nil
		}
	}
	return "generic analysis", nil
}

type stubSearcher struct {
	urls  []string
	err   error
	calls int
}

func (s *stubSearcher) SearchTicker(ctx context.Context, ticker string) ([]string, error) {
	s.calls++
	return s.urls, s.err
}

type stubFetcher struct {
	batch webfetch.Batch
	calls int
}

func (f *stubFetcher) FetchAndCombine(ctx context.Context, urls []string) webfetch.Batch {
	f.calls++
	return f.batch
}

type mockStore struct {
	mock.Mock
	enabled bool
}

func (m *mockStore) Enabled() bool { return m.enabled }

func (m *mockStore) ResolveFolder(ctx context.Context, ref string) (docstore.Folder, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(docstore.Folder), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, title, content, folderID string) (docstore.PersistedDocument, error) {
	args := m.Called(ctx, title, content, folderID)
	return args.Get(0).(docstore.PersistedDocument), args.Error(1)
}

type fixture struct {
	completer *recordingCompleter
	searcher  *stubSearcher
	fetcher   *stubFetcher
	store     *mockStore
}

func newFixture() *fixture {
	return &fixture{
		completer: &recordingCompleter{replies: map[string]string{}},
		searcher:  &stubSearcher{urls: []string{"https://a.example", "https://b.example"}},
		fetcher: &stubFetcher{batch: webfetch.Batch{
			Text:    "Apple beats estimates.\nGuidance raised.\n",
			Fetched: []string{"https://a.example", "https://b.example"},
		}},
		store: &mockStore{},
	}
}

func (f *fixture) pipeline() *Pipeline {
	return New(Deps{
		Reader:   extract.Reader{},
		Analyzer: analysis.NewClient(f.completer),
		Searcher: f.searcher,
		Fetcher:  f.fetcher,
		Store:    f.store,
		Now:      func() time.Time { return fixedNow },
		NewID:    func() string { return "run-1" },
	})
}

func pdfUpload() *extract.Upload {
	return &extract.Upload{
		FileName: "q4.pdf",
		MimeType: extract.MimePDF,
		Data:     extracttest.PDF("Revenue grew 10%", "Risks include FX exposure"),
	}
}

func messages(r *Report, level Level) []string {
	var out []string
	for _, f := range r.Feedback {
		if f.Level == level {
			out = append(out, f.Message)
		}
	}
	return out
}

func TestRunPDFSummaryScenario(t *testing.T) {
	f := newFixture()
	f.store.enabled = true
	f.completer.replies["Please provide a concise summary"] = "Revenue up, FX risk."
	ctx := context.Background()
	f.store.On("ResolveFolder", ctx, "").Return(docstore.RootFolder, nil)
	f.store.On("Save", ctx, "AAPL_Summary_Analysis_20240305140709", "Revenue up, FX risk.", "root").
		Return(docstore.PersistedDocument{Title: "AAPL_Summary_Analysis_20240305140709", DocumentID: "d1", FileID: "f1", FolderID: "root"}, nil)
	f.store.On("Save", ctx, "AAPL_News_summary_20240305140709", "Revenue up, FX risk.", "root").
		Return(docstore.PersistedDocument{Title: "AAPL_News_summary_20240305140709", DocumentID: "d2", FileID: "f2", FolderID: "root"}, nil)

	report := f.pipeline().Run(ctx, Input{
		Ticker:        " aapl ",
		Upload:        pdfUpload(),
		PrimaryKind:   analysis.KindSummary,
		SecondaryKind: analysis.KindSummary,
	})

	require.Len(t, f.completer.prompts, 2)
	prompt := f.completer.prompts[0]
	tpl, ok := analysis.BuildPrompt(analysis.KindSummary, "")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(prompt, tpl), "prompt should start with the summary template")
	body := strings.TrimPrefix(prompt, tpl)
	first := strings.Index(body, "Revenue grew 10%")
	second := strings.Index(body, "Risks include FX exposure")
	assert.True(t, first >= 0 && second > first, "both pages in order, got %q", body)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "AAPL", report.Ticker)
	assert.Equal(t, StateDone, report.State)
	require.NotNil(t, report.Primary)
	assert.Equal(t, "Revenue up, FX risk.", report.Primary.Text)
	require.NotNil(t, report.Secondary)
	assert.Len(t, report.Documents, 2)
	assert.Equal(t, []string{
		"Summary Analysis saved to Google Drive with file ID: f1 to folder root",
		"Google search results saved to Google Drive with file ID: f2 to folder root",
	}, messages(report, LevelSuccess))
	assert.Empty(t, report.Warnings())
	f.store.AssertExpectations(t)
}

func TestRunNoSearchResultsScenario(t *testing.T) {
	f := newFixture()
	f.store.enabled = true
	f.searcher.urls = nil
	ctx := context.Background()
	f.store.On("ResolveFolder", ctx, "").Return(docstore.RootFolder, nil)
	f.store.On("Save", ctx, "ZZZZ_Financial_Analysis_20240305140709", "generic analysis", "root").
		Return(docstore.PersistedDocument{DocumentID: "d1", FileID: "f1", FolderID: "root"}, nil).Once()

	report := f.pipeline().Run(ctx, Input{Ticker: "ZZZZ", Upload: pdfUpload(), PrimaryKind: analysis.KindFinancial})

	assert.Equal(t, 1, f.searcher.calls)
	assert.Equal(t, 0, f.fetcher.calls, "fetch must be skipped")
	assert.Len(t, f.completer.prompts, 1, "secondary analysis must be skipped")
	assert.Nil(t, report.Secondary)
	require.NotNil(t, report.Primary)
	assert.Contains(t, messages(report, LevelError), "Failed to generate search results. Please try again.")
	assert.Len(t, report.Documents, 1)
	f.store.AssertNumberOfCalls(t, "Save", 1)
}

func TestRunWithoutCredentialScenario(t *testing.T) {
	f := newFixture()
	f.store.enabled = false

	report := f.pipeline().Run(context.Background(), Input{Ticker: "MSFT", Upload: pdfUpload()})

	assert.Len(t, f.completer.prompts, 2, "both analyses run")
	assert.NotNil(t, report.Primary)
	assert.NotNil(t, report.Secondary)
	assert.Empty(t, report.Documents)
	assert.Empty(t, messages(report, LevelError))
	assert.Equal(t, []string{"Google credentials file not set. Add the file path to your .env file for Drive saving."}, messages(report, LevelWarning))
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAwaitInput(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		enabled bool
		extra   Level
	}{
		{name: "missing ticker", in: Input{Upload: pdfUpload()}, extra: LevelWarning},
		{name: "missing upload", in: Input{Ticker: "AAPL"}, enabled: true, extra: LevelInfo},
		{name: "empty upload", in: Input{Ticker: "AAPL", Upload: &extract.Upload{FileName: "x.pdf"}}, extra: LevelWarning},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.store.enabled = tt.enabled
			r := f.pipeline().newRun(tt.in)

			next := r.awaitInput(context.Background())

			assert.Equal(t, StateDone, next)
			assert.True(t, r.report.Awaiting)
			require.Len(t, r.report.Feedback, 2)
			assert.Equal(t, "Please upload a financial document and enter the stock ticker symbol", r.report.Feedback[0].Message)
			assert.Equal(t, tt.extra, r.report.Feedback[1].Level)
		})
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	f := newFixture()
	r := f.pipeline().newRun(Input{Ticker: "AAPL", Upload: &extract.Upload{FileName: "a.txt", MimeType: "text/plain", Data: []byte("hi")}})

	next := r.extract(context.Background())

	assert.Equal(t, StatePrimaryAnalysis, next)
	assert.Empty(t, r.text)
	assert.Equal(t, []string{"Unsupported file format. Please upload a PDF or Word document."}, messages(r.report, LevelError))

	assert.Equal(t, StateSearch, r.primaryAnalysis(context.Background()))
	assert.Empty(t, f.completer.prompts, "no analysis without text")
}

func TestPrimaryAnalysisFailure(t *testing.T) {
	f := newFixture()
	f.completer.err = errors.New("503")
	r := f.pipeline().newRun(Input{Ticker: "AAPL", Upload: pdfUpload()})
	r.text = "some text"

	assert.Equal(t, StateSearch, r.primaryAnalysis(context.Background()))
	assert.Nil(t, r.report.Primary)
	assert.Equal(t, []string{"Failed to generate analysis."}, messages(r.report, LevelError))
	assert.Len(t, f.completer.prompts, 1)
}

func TestPrimaryAnalysisInvalidKind(t *testing.T) {
	f := newFixture()
	r := f.pipeline().newRun(Input{Ticker: "AAPL", Upload: pdfUpload(), PrimaryKind: "forecast"})
	r.text = "some text"

	assert.Equal(t, StateSearch, r.primaryAnalysis(context.Background()))
	assert.Nil(t, r.report.Primary)
	assert.Equal(t, []string{"Invalid analysis type."}, messages(r.report, LevelError))
	assert.Empty(t, f.completer.prompts)
}

func TestFetchPartialFailures(t *testing.T) {
	f := newFixture()
	f.fetcher.batch = webfetch.Batch{
		Text:    "only page\n",
		Fetched: []string{"https://a.example"},
		Failed:  []webfetch.FailedURL{{URL: "https://b.example", Error: "fetch: status 404"}},
	}
	r := f.pipeline().newRun(Input{Ticker: "AAPL"})
	r.report.SearchURLs = []string{"https://a.example", "https://b.example"}

	assert.Equal(t, StateSecondaryAnalysis, r.fetch(context.Background()))
	assert.Equal(t, "only page\n", r.combined)
	assert.Equal(t, []string{"Error fetching content from https://b.example: fetch: status 404"}, messages(r.report, LevelWarning))
}

func TestFetchNothingUsable(t *testing.T) {
	f := newFixture()
	f.fetcher.batch = webfetch.Batch{Text: "\n\n", Fetched: []string{"https://a.example"}}
	r := f.pipeline().newRun(Input{Ticker: "AAPL"})
	r.report.SearchURLs = []string{"https://a.example"}

	assert.Equal(t, StatePersist, r.fetch(context.Background()))
	assert.Equal(t, []string{"Could not fetch content from the URL's"}, messages(r.report, LevelError))
}

func TestSecondaryAnalysisRejectsChart(t *testing.T) {
	f := newFixture()
	r := f.pipeline().newRun(Input{Ticker: "AAPL", SecondaryKind: analysis.KindChart})
	r.combined = "news"

	assert.Equal(t, StatePersist, r.secondaryAnalysis(context.Background()))
	assert.Nil(t, r.report.Secondary)
	assert.Empty(t, f.completer.prompts)
	assert.Equal(t, []string{"Invalid analysis type."}, messages(r.report, LevelError))
}

func TestPersistNothingToSave(t *testing.T) {
	f := newFixture()
	f.store.enabled = true
	r := f.pipeline().newRun(Input{Ticker: "AAPL"})

	assert.Equal(t, StateDone, r.persist(context.Background()))
	assert.Equal(t, []string{"No results to save to Google Drive."}, messages(r.report, LevelWarning))
	f.store.AssertNotCalled(t, "ResolveFolder", mock.Anything, mock.Anything)
}

func TestPersistUnknownFolder(t *testing.T) {
	f := newFixture()
	f.store.enabled = true
	ctx := context.Background()
	f.store.On("ResolveFolder", ctx, "Taxes").Return(docstore.Folder{}, docstore.ErrFolderNotFound)
	r := f.pipeline().newRun(Input{Ticker: "AAPL", Folder: "Taxes"})
	r.report.Primary = &analysis.Result{Kind: analysis.KindFinancial, Text: "x"}

	assert.Equal(t, StateDone, r.persist(ctx))
	require.Len(t, messages(r.report, LevelError), 1)
	assert.Contains(t, messages(r.report, LevelError)[0], "folder not found")
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPersistReportsCreateAndCopyFailures(t *testing.T) {
	f := newFixture()
	f.store.enabled = true
	ctx := context.Background()
	research := docstore.Folder{ID: "fold-1", Name: "Research"}
	f.store.On("ResolveFolder", ctx, "Research").Return(research, nil)
	f.store.On("Save", ctx, "AAPL_Swot_Analysis_20240305140709", "swot json", "fold-1").
		Return(docstore.PersistedDocument{}, docstore.ErrCreateFailed)
	f.store.On("Save", ctx, "AAPL_News_financial_20240305140709", "news text", "fold-1").
		Return(docstore.PersistedDocument{DocumentID: "d2"}, docstore.ErrPersistFailed)

	r := f.pipeline().newRun(Input{Ticker: "AAPL", Folder: "Research"})
	r.report.Primary = &analysis.Result{Kind: analysis.KindSWOT, Text: "swot json"}
	r.report.Secondary = &analysis.Result{Kind: analysis.KindFinancial, Text: "news text"}

	assert.Equal(t, StateDone, r.persist(ctx))
	assert.Equal(t, []string{
		"Failed to create Swot analysis Google Doc.",
		"Failed to save search results to Google Drive.",
	}, messages(r.report, LevelError))
	assert.Empty(t, r.report.Documents)
	assert.Equal(t, &research, r.report.Folder)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := f.pipeline().Run(ctx, Input{Ticker: "AAPL", Upload: pdfUpload()})

	assert.Equal(t, StateAwaitInput, report.State)
	assert.Equal(t, []string{"Run cancelled before completion."}, messages(report, LevelError))
	assert.Equal(t, 0, f.searcher.calls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "secondary_analysis", StateSecondaryAnalysis.String())
	text, err := StatePersist.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "persist", string(text))
	assert.Equal(t, "state(42)", State(42).String())
}
