package runs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filing-analyzer/internal/analysis"
	"filing-analyzer/internal/docstore"
	"filing-analyzer/internal/extract"
	"filing-analyzer/internal/pipeline"
	"filing-analyzer/internal/shared/server/respond"
	"filing-analyzer/internal/shared/telemetry"
)

const maxUploadSize = 10 << 20 // 10MB

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) *pipeline.Report
}

// FolderLister exposes the destination folders of the document store.
type FolderLister interface {
	Enabled() bool
	ListFolders(ctx context.Context) ([]docstore.Folder, error)
}

// Handler wires HTTP handlers to the pipeline.
type Handler struct {
	Runner  Runner
	Folders FolderLister
}

// NewHandler constructs a Handler.
func NewHandler(runner Runner, folders FolderLister) *Handler {
	return &Handler{Runner: runner, Folders: folders}
}

// RegisterRoutes attaches run routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/runs", h.create)
	rg.GET("/folders", h.folders)
	rg.GET("/analysis-kinds", h.kinds)
}

func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	upload, err := readUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file must be 10MB or smaller", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read upload", nil)
		return
	}

	secondary := analysis.ParseKind(c.DefaultPostForm("searchAnalysisType", string(analysis.KindFinancial)))
	if secondary == "" {
		secondary = analysis.KindFinancial
	}
	if !secondary.Secondary() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "searchAnalysisType must be one of financial, swot, summary", nil)
		return
	}
	primary := analysis.ParseKind(c.DefaultPostForm("analysisType", string(analysis.KindFinancial)))
	if primary == "" {
		primary = analysis.KindFinancial
	}

	report := h.Runner.Run(c.Request.Context(), pipeline.Input{
		Ticker:        strings.ToUpper(strings.TrimSpace(c.PostForm("ticker"))),
		Upload:        upload,
		PrimaryKind:   primary,
		SecondaryKind: secondary,
		Folder:        strings.TrimSpace(c.PostForm("folder")),
	})
	c.Set("runId", report.RunID)

	if report.Awaiting {
		msg := "input required"
		if warnings := report.Warnings(); len(warnings) > 0 {
			msg = warnings[0]
		}
		respond.Error(c, http.StatusBadRequest, "awaiting_input", msg, report)
		return
	}
	respond.OK(c, report)
}

// readUpload returns nil without error when no file was sent.
func readUpload(c *gin.Context) (*extract.Upload, error) {
	fileHeader, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	mimeType := extract.DetectMimeType(fileHeader.Header.Get("Content-Type"), fileHeader.Filename, data)
	telemetry.Info("runs.upload", map[string]any{
		"request_id": c.GetString("requestId"),
		"file_name":  fileHeader.Filename,
		"mime_type":  mimeType,
		"size_bytes": len(data),
	})
	return &extract.Upload{FileName: fileHeader.Filename, MimeType: mimeType, Data: data}, nil
}

type foldersResponse struct {
	Enabled bool              `json:"enabled"`
	Folders []docstore.Folder `json:"folders"`
	Warning string            `json:"warning,omitempty"`
}

func (h *Handler) folders(c *gin.Context) {
	if h.Folders == nil || !h.Folders.Enabled() {
		respond.OK(c, foldersResponse{Enabled: false, Folders: []docstore.Folder{}, Warning: pipeline.StoreDisabledMessage})
		return
	}
	list, err := h.Folders.ListFolders(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "upstream_error", "failed to list folders", err.Error())
		return
	}
	folders := append([]docstore.Folder{docstore.RootFolder}, list...)
	respond.OK(c, foldersResponse{Enabled: true, Folders: folders})
}

func (h *Handler) kinds(c *gin.Context) {
	respond.OK(c, gin.H{
		"primary":   analysis.PrimaryKinds,
		"secondary": analysis.SecondaryKinds,
	})
}
