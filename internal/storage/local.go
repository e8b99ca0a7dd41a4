package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"brandpost/internal/app/model"
)

type LocalStorage struct {
	outputDir string
	mirrors   []Mirror
}

func NewLocalStorage(outputDir string, mirrors ...Mirror) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
		mirrors:   mirrors,
	}
}

func (s *LocalStorage) EnsureDirectories() error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return &WriteError{Op: "mkdir", Path: s.outputDir, Err: err}
	}
	return nil
}

// Write stores the post as post_<id>.jpg and post_<id>.json. Existing files
// are never replaced; if the JSON cannot be written the image is removed
// again so the pair stays complete.
func (s *LocalStorage) Write(ctx context.Context, post *model.GeneratedPost) (*model.PostRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if post.ID == "" {
		return nil, &WriteError{Op: "write", Path: s.outputDir, Err: errors.New("post has no id")}
	}
	if err := s.EnsureDirectories(); err != nil {
		return nil, err
	}

	jsonName, imageName := postFileNames(post.ID)
	imagePath := filepath.Join(s.outputDir, imageName)
	jsonPath := filepath.Join(s.outputDir, jsonName)

	doc, err := json.MarshalIndent(newPostDocument(post, imageName), "", "  ")
	if err != nil {
		return nil, &WriteError{Op: "encode", Path: jsonPath, Err: err}
	}

	if err := writeExclusive(imagePath, post.Image.Data); err != nil {
		return nil, err
	}
	if err := writeExclusive(jsonPath, doc); err != nil {
		_ = os.Remove(imagePath)
		return nil, err
	}

	record := &model.PostRecord{
		ID:        post.ID,
		Index:     post.Index,
		JSONPath:  jsonPath,
		ImagePath: imagePath,
	}
	record.Mirrors = append(record.Mirrors, s.mirror(ctx, post.RunID, imageName, contentTypeJPEG, post.Image.Data)...)
	record.Mirrors = append(record.Mirrors, s.mirror(ctx, post.RunID, jsonName, contentTypeJSON, doc)...)

	slog.Debug("Post saved", "post", post.Index, "json", jsonPath, "image", imagePath)
	return record, nil
}

func (s *LocalStorage) WriteSummary(ctx context.Context, result *model.RunResult) (string, error) {
	if err := s.EnsureDirectories(); err != nil {
		return "", err
	}

	name := summaryFileName(result.RunID)
	path := filepath.Join(s.outputDir, name)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", &WriteError{Op: "encode", Path: path, Err: err}
	}
	if err := writeExclusive(path, data); err != nil {
		return "", err
	}

	s.mirror(ctx, result.RunID, name, contentTypeJSON, data)
	return path, nil
}

// mirror uploads to every configured mirror. Upload failures are logged and
// leave the local files in place.
func (s *LocalStorage) mirror(ctx context.Context, runID, name, contentType string, data []byte) []string {
	var uris []string
	for _, m := range s.mirrors {
		uri, err := m.Upload(ctx, objectKey("", runID, name), contentType, data)
		if err != nil {
			slog.Warn("Mirror upload failed", "mirror", m.Name(), "file", name, "error", err)
			continue
		}
		uris = append(uris, uri)
	}
	return uris
}

func (s *LocalStorage) Close() error {
	var errs []error
	for _, m := range s.mirrors {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s mirror: %w", m.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return &WriteError{Op: "create", Path: path, Err: err}
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return &WriteError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return &WriteError{Op: "close", Path: path, Err: err}
	}
	return nil
}
