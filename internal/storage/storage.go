// Package storage lays out track directories on disk and optionally mirrors
// finished artifacts to a Cloud Storage bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	gcs "cloud.google.com/go/storage"

	"guidecast/internal/staging"
)

// TrackDirs holds the per-stage directories of one track.
type TrackDirs struct {
	Root   string
	Info   string
	Script string
	Audio  string
}

// EnsureTrackDirs creates <tracksRoot>/<track>/{info,script,audio} and
// returns the resulting layout. The track name is sanitized the same way
// artifact names are.
func EnsureTrackDirs(tracksRoot, trackName string) (TrackDirs, error) {
	root := filepath.Join(tracksRoot, staging.Sanitize(trackName))
	dirs := TrackDirs{
		Root:   root,
		Info:   filepath.Join(root, "info"),
		Script: filepath.Join(root, "script"),
		Audio:  filepath.Join(root, "audio"),
	}
	for _, dir := range []string{dirs.Info, dirs.Script, dirs.Audio} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return TrackDirs{}, fmt.Errorf("create track directory %s: %w", dir, err)
		}
	}
	return dirs, nil
}

// Uploader mirrors local artifacts into a bucket under a fixed object root.
type Uploader struct {
	client *gcs.Client
	bucket string
	root   string
}

// NewUploader opens a Cloud Storage client using ambient credentials.
func NewUploader(ctx context.Context, bucket, root string) (*Uploader, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Uploader{client: client, bucket: bucket, root: root}, nil
}

// Upload copies a local file to <root>/<objectName> in the bucket.
func (u *Uploader) Upload(ctx context.Context, localPath, objectName string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	obj := u.client.Bucket(u.bucket).Object(path.Join(u.root, objectName))
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", objectName, err)
	}
	return nil
}

func (u *Uploader) Close() error {
	return u.client.Close()
}
