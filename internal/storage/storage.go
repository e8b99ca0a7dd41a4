package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"brandpost/internal/app/model"
)

const (
	contentTypeJSON = "application/json"
	contentTypeJPEG = "image/jpeg"
)

type Writer interface {
	Write(ctx context.Context, post *model.GeneratedPost) (*model.PostRecord, error)
	WriteSummary(ctx context.Context, result *model.RunResult) (string, error)
}

// Mirror copies persisted files to remote object storage. Upload returns the
// object URI.
type Mirror interface {
	Name() string
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Close() error
}

type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type postDocument struct {
	ID          string             `json:"id"`
	RunID       string             `json:"run_id"`
	Index       int                `json:"index"`
	Platform    string             `json:"platform"`
	Text        string             `json:"text"`
	GeneratedAt time.Time          `json:"generated_at"`
	ImageFile   string             `json:"image_file"`
	Image       model.ImageAsset   `json:"image"`
	Metadata    model.PostMetadata `json:"metadata"`
}

func newPostDocument(post *model.GeneratedPost, imageFile string) postDocument {
	return postDocument{
		ID:          post.ID,
		RunID:       post.RunID,
		Index:       post.Index,
		Platform:    post.Text.Platform,
		Text:        post.Text.Body,
		GeneratedAt: post.Text.GeneratedAt,
		ImageFile:   imageFile,
		Image:       post.Image,
		Metadata:    post.Metadata,
	}
}

func postFileNames(id string) (jsonName, imageName string) {
	return fmt.Sprintf("post_%s.json", id), fmt.Sprintf("post_%s.jpg", id)
}

func summaryFileName(runID string) string {
	return fmt.Sprintf("run_%s.json", runID)
}

func objectKey(prefix, runID, name string) string {
	return strings.TrimPrefix(path.Join(prefix, runID, name), "/")
}
