// Package docstore creates documents on a hosted storage service and files
// them into folders.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"filing-analyzer/internal/shared/telemetry"
)

// RootFolderID addresses the top level of the store.
const RootFolderID = "root"

var (
	// ErrDisabled is returned by every operation when no backend is configured.
	ErrDisabled = errors.New("document store disabled")
	// ErrFolderNotFound is returned when a folder reference matches nothing.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrCreateFailed marks a failure to create or fill the document.
	ErrCreateFailed = errors.New("create document failed")
	// ErrPersistFailed marks a failure to file a created document.
	ErrPersistFailed = errors.New("persist document failed")
)

// Folder is a destination for persisted documents.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RootFolder is the implicit top-level destination.
var RootFolder = Folder{ID: RootFolderID, Name: RootFolderID}

// PersistedDocument describes a saved document.
type PersistedDocument struct {
	Title      string `json:"title"`
	DocumentID string `json:"documentId"`
	FileID     string `json:"fileId"`
	FolderID   string `json:"folderId"`
}

// Backend is a concrete storage service.
type Backend interface {
	// CreateDocument creates an empty document and returns its id.
	CreateDocument(ctx context.Context, title string) (string, error)
	// InsertText writes text at the start of the document body.
	InsertText(ctx context.Context, documentID, text string) error
	// CopyToFolder files a copy of the document under parentID and returns the new file id.
	CopyToFolder(ctx context.Context, documentID, title, parentID string) (string, error)
	// ListFolders returns non-trashed folders.
	ListFolders(ctx context.Context) ([]Folder, error)
}

// Store wraps a Backend. A Store without a backend runs in degraded mode:
// every call returns ErrDisabled.
type Store struct {
	backend Backend
	name    string
}

// New returns a Store over backend. name labels log lines.
func New(backend Backend, name string) *Store {
	return &Store{backend: backend, name: name}
}

// Disabled returns a Store in degraded mode.
func Disabled() *Store {
	return &Store{name: "disabled"}
}

// Enabled reports whether a backend is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.backend != nil
}

// Name returns the backend label.
func (s *Store) Name() string {
	if s == nil {
		return "disabled"
	}
	return s.name
}

// CreateDocument creates a document titled title holding content. Both the
// create and the insert must succeed.
func (s *Store) CreateDocument(ctx context.Context, title, content string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	id, err := s.backend.CreateDocument(ctx, title)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", title, err)
	}
	if err := s.backend.InsertText(ctx, id, content); err != nil {
		return "", fmt.Errorf("insert text into %s: %w", id, err)
	}
	return id, nil
}

// Persist copies documentID into folderID, or the root when folderID is empty.
func (s *Store) Persist(ctx context.Context, documentID, title, folderID string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if folderID == "" {
		folderID = RootFolderID
	}
	fileID, err := s.backend.CopyToFolder(ctx, documentID, title, folderID)
	if err != nil {
		return "", fmt.Errorf("copy %s to %s: %w", documentID, folderID, err)
	}
	return fileID, nil
}

// ListFolders returns the folders available as destinations.
func (s *Store) ListFolders(ctx context.Context) ([]Folder, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	folders, err := s.backend.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// ResolveFolder maps a folder id or name to a Folder. Empty and "root" map
// to RootFolder. Ids win over names.
func (s *Store) ResolveFolder(ctx context.Context, ref string) (Folder, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == RootFolderID {
		return RootFolder, nil
	}
	folders, err := s.ListFolders(ctx)
	if err != nil {
		return Folder{}, err
	}
	for _, f := range folders {
		if f.ID == ref {
			return f, nil
		}
	}
	for _, f := range folders {
		if f.Name == ref {
			return f, nil
		}
	}
	return Folder{}, fmt.Errorf("%w: %q", ErrFolderNotFound, ref)
}

// Save creates the document and then files it. Persist is never attempted
// when creation fails. A document whose copy fails is left orphaned.
func (s *Store) Save(ctx context.Context, title, content, folderID string) (PersistedDocument, error) {
	if !s.Enabled() {
		return PersistedDocument{}, ErrDisabled
	}
	docID, err := s.CreateDocument(ctx, title, content)
	if err != nil {
		telemetry.Error("docstore.create_failed", map[string]any{
			"backend": s.name,
			"title":   title,
			"error":   err.Error(),
		})
		return PersistedDocument{}, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	if folderID == "" {
		folderID = RootFolderID
	}
	fileID, err := s.Persist(ctx, docID, title, folderID)
	if err != nil {
		telemetry.Error("docstore.persist_failed", map[string]any{
			"backend":     s.name,
			"title":       title,
			"document_id": docID,
			"error":       err.Error(),
		})
		return PersistedDocument{Title: title, DocumentID: docID, FolderID: folderID}, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	telemetry.Info("docstore.saved", map[string]any{
		"backend":     s.name,
		"title":       title,
		"document_id": docID,
		"file_id":     fileID,
		"folder_id":   folderID,
	})
	return PersistedDocument{Title: title, DocumentID: docID, FileID: fileID, FolderID: folderID}, nil
}
