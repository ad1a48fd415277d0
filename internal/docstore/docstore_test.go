package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CreateDocument(ctx context.Context, title string) (string, error) {
	args := m.Called(ctx, title)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) InsertText(ctx context.Context, documentID, text string) error {
	args := m.Called(ctx, documentID, text)
	return args.Error(0)
}

func (m *mockBackend) CopyToFolder(ctx context.Context, documentID, title, parentID string) (string, error) {
	args := m.Called(ctx, documentID, title, parentID)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) ListFolders(ctx context.Context) ([]Folder, error) {
	args := m.Called(ctx)
	folders, _ := args.Get(0).([]Folder)
	return folders, args.Error(1)
}

func TestSaveCreatesThenPersistsToRoot(t *testing.T) {
	ctx := context.Background()
	backend := new(mockBackend)
	backend.On("CreateDocument", ctx, "AAPL_Summary_Analysis_20240102030405").Return("doc-1", nil).Once()
	backend.On("InsertText", ctx, "doc-1", "summary text").Return(nil).Once()
	backend.On("CopyToFolder", ctx, "doc-1", "AAPL_Summary_Analysis_20240102030405", "root").Return("file-1", nil).Once()

	got, err := New(backend, "mock").Save(ctx, "AAPL_Summary_Analysis_20240102030405", "summary text", "")
	require.NoError(t, err)
	assert.Equal(t, PersistedDocument{
		Title:      "AAPL_Summary_Analysis_20240102030405",
		DocumentID: "doc-1",
		FileID:     "file-1",
		FolderID:   "root",
	}, got)
	backend.AssertExpectations(t)
}

func TestSaveNeverPersistsAfterFailedCreate(t *testing.T) {
	ctx := context.Background()
	backend := new(mockBackend)
	backend.On("CreateDocument", ctx, "t").Return("", errors.New("quota")).Once()

	_, err := New(backend, "mock").Save(ctx, "t", "c", "folder-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCreateFailed)
	backend.AssertNotCalled(t, "InsertText", mock.Anything, mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "CopyToFolder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveNeverPersistsAfterFailedInsert(t *testing.T) {
	ctx := context.Background()
	backend := new(mockBackend)
	backend.On("CreateDocument", ctx, "t").Return("doc-2", nil).Once()
	backend.On("InsertText", ctx, "doc-2", "c").Return(errors.New("bad request")).Once()

	_, err := New(backend, "mock").Save(ctx, "t", "c", "")
	assert.ErrorIs(t, err, ErrCreateFailed)
	backend.AssertNotCalled(t, "CopyToFolder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSavePersistFailureKeepsDocumentID(t *testing.T) {
	ctx := context.Background()
	backend := new(mockBackend)
	backend.On("CreateDocument", ctx, "t").Return("doc-3", nil)
	backend.On("InsertText", ctx, "doc-3", "c").Return(nil)
	backend.On("CopyToFolder", ctx, "doc-3", "t", "folder-9").Return("", errors.New("forbidden"))

	got, err := New(backend, "mock").Save(ctx, "t", "c", "folder-9")
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.Equal(t, "doc-3", got.DocumentID)
	assert.Empty(t, got.FileID)
}

func TestDisabledStore(t *testing.T) {
	ctx := context.Background()
	store := Disabled()

	assert.False(t, store.Enabled())
	_, err := store.Save(ctx, "t", "c", "")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = store.ListFolders(ctx)
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = store.CreateDocument(ctx, "t", "c")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = store.Persist(ctx, "d", "t", "")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestResolveFolder(t *testing.T) {
	ctx := context.Background()
	backend := new(mockBackend)
	backend.On("ListFolders", ctx).Return([]Folder{
		{ID: "f-1", Name: "Research"},
		{ID: "Research", Name: "Shadow"},
		{ID: "f-3", Name: "Earnings"},
	}, nil)
	store := New(backend, "mock")

	tests := []struct {
		name string
		ref  string
		want Folder
		err  error
	}{
		{name: "empty is root", ref: "", want: RootFolder},
		{name: "root literal", ref: "root", want: RootFolder},
		{name: "by id wins over name", ref: "Research", want: Folder{ID: "Research", Name: "Shadow"}},
		{name: "by name", ref: "Earnings", want: Folder{ID: "f-3", Name: "Earnings"}},
		{name: "unknown", ref: "Taxes", err: ErrFolderNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ResolveFolder(ctx, tt.ref)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
