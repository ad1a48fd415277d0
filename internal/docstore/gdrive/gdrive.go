// Package gdrive stores documents with the Google Docs and Drive APIs.
package gdrive

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"filing-analyzer/internal/docstore"
)

const (
	documentMimeType = "application/vnd.google-apps.document"
	folderQuery      = "mimeType='application/vnd.google-apps.folder' and trashed=false"
)

// Scopes requested for the service account.
var Scopes = []string{
	docs.DocumentsScope,
	drive.DriveScope,
	drive.DriveFileScope,
}

// Backend implements docstore.Backend.
type Backend struct {
	docs  *docs.Service
	drive *drive.Service
}

// New reads a service-account credential file and builds the API clients.
// An unreadable or malformed file is an error.
func New(ctx context.Context, credentialsFile string) (*Backend, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials %s: %w", credentialsFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	return NewWithOptions(ctx, option.WithCredentials(creds))
}

// NewWithOptions builds the API clients from explicit client options.
func NewWithOptions(ctx context.Context, opts ...option.ClientOption) (*Backend, error) {
	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init docs service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init drive service: %w", err)
	}
	return &Backend{docs: docsSvc, drive: driveSvc}, nil
}

// CreateDocument creates an empty Google Doc.
func (b *Backend) CreateDocument(ctx context.Context, title string) (string, error) {
	doc, err := b.docs.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if doc.DocumentId == "" {
		return "", fmt.Errorf("docs create returned no document id")
	}
	return doc.DocumentId, nil
}

// InsertText inserts text at body index 1, the start of an empty document.
func (b *Backend) InsertText(ctx context.Context, documentID, text string) error {
	req := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     text,
			},
		}},
	}
	_, err := b.docs.Documents.BatchUpdate(documentID, req).Context(ctx).Do()
	return err
}

// CopyToFolder copies the document into parentID as a Google Doc.
func (b *Backend) CopyToFolder(ctx context.Context, documentID, title, parentID string) (string, error) {
	file := &drive.File{
		Name:     title,
		MimeType: documentMimeType,
		Parents:  []string{parentID},
	}
	copied, err := b.drive.Files.Copy(documentID, file).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return copied.Id, nil
}

// ListFolders returns every non-trashed folder visible to the account.
func (b *Backend) ListFolders(ctx context.Context) ([]docstore.Folder, error) {
	var folders []docstore.Folder
	err := b.drive.Files.List().
		Q(folderQuery).
		Fields("nextPageToken, files(id, name)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				folders = append(folders, docstore.Folder{ID: f.Id, Name: f.Name})
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

var _ docstore.Backend = (*Backend)(nil)
