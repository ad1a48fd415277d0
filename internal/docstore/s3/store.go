// Package s3 stores documents as text objects in an S3-compatible bucket.
// Folders are top-level key prefixes.
package s3

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"filing-analyzer/internal/docstore"
	"filing-analyzer/internal/shared/util"
)

const (
	draftsPrefix = "drafts"
	contentType  = "text/plain; charset=utf-8"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store implements docstore.Backend on S3.
type Store struct {
	client s3API
	bucket string
	prefix string
}

// New loads the default AWS config and returns a bucket-backed store.
// endpoint selects an S3-compatible service such as MinIO and forces
// path-style addressing.
func New(ctx context.Context, region, bucket, prefix, endpoint string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return newWithClient(client, bucket, prefix), nil
}

func newWithClient(client s3API, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: normalizePrefix(prefix)}
}

// CreateDocument writes an empty draft object and returns its key.
func (s *Store) CreateDocument(ctx context.Context, title string) (string, error) {
	name, err := util.SanitizeFileName(title)
	if err != nil {
		return "", fmt.Errorf("sanitize title: %w", err)
	}
	key := path.Join(draftsPrefix, fmt.Sprintf("%s_%s.txt", randomID(), name))
	if err := s.put(ctx, key, ""); err != nil {
		return "", err
	}
	return key, nil
}

// InsertText replaces the draft body with text.
func (s *Store) InsertText(ctx context.Context, documentID, text string) error {
	return s.put(ctx, documentID, text)
}

// CopyToFolder copies the draft to <parentID>/<title>.txt.
func (s *Store) CopyToFolder(ctx context.Context, documentID, title, parentID string) (string, error) {
	name, err := util.SanitizeFileName(title)
	if err != nil {
		return "", fmt.Errorf("sanitize title: %w", err)
	}
	folder, err := util.SanitizeFileName(parentID)
	if err != nil {
		return "", fmt.Errorf("sanitize folder: %w", err)
	}
	key := path.Join(folder, name+".txt")
	source := applyPrefix(s.prefix, documentID)
	dest := applyPrefix(s.prefix, key)
	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dest),
		CopySource: aws.String(copySource(s.bucket, source)),
	})
	if err != nil {
		return "", fmt.Errorf("s3 copy object bucket=%s key=%s: %w", s.bucket, dest, err)
	}
	return key, nil
}

// ListFolders returns the top-level prefixes, excluding drafts.
func (s *Store) ListFolders(ctx context.Context) ([]docstore.Folder, error) {
	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(listPrefix),
		Delimiter: aws.String("/"),
	})
	var folders []docstore.Folder
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list bucket=%s prefix=%s: %w", s.bucket, listPrefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.Trim(strings.TrimPrefix(aws.ToString(cp.Prefix), listPrefix), "/")
			if name == "" || name == draftsPrefix || name == docstore.RootFolderID {
				continue
			}
			folders = append(folders, docstore.Folder{ID: name, Name: name})
		}
	}
	return folders, nil
}

func (s *Store) put(ctx context.Context, key, body string) error {
	objectKey := applyPrefix(s.prefix, key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(objectKey),
		Body:                 strings.NewReader(body),
		ContentType:          aws.String(contentType),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

func randomID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ docstore.Backend = (*Store)(nil)
