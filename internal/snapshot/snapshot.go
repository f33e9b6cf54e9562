// Package snapshot persists the generated dataset. The local file is
// replaced atomically so a failed run can never leave a partial
// snapshot behind.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/payload-plugins/catalog/pkg/catalog"
	"github.com/sirupsen/logrus"
)

// Writer persists PluginsData to a local path and, when storage is
// set, mirrors it to an S3-compatible bucket.
type Writer struct {
	path    string
	log     *logrus.Logger
	storage *s3.Client
	bucket  *string
	key     string
}

func NewWriter(path string, log *logrus.Logger) *Writer {
	return &Writer{path: path, log: log}
}

// WithUpload enables the bucket mirror.
func (w *Writer) WithUpload(storage *s3.Client, bucket *string, key string) *Writer {
	w.storage = storage
	w.bucket = bucket
	w.key = key
	return w
}

// Write marshals data and atomically replaces the snapshot file, then
// uploads the same bytes when a mirror is configured. The prior
// snapshot stays untouched unless the new one is fully written.
func (w *Writer) Write(ctx context.Context, data *catalog.PluginsData) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmpFile.Name()
	if _, err := tmpFile.Write(encoded); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	w.log.Infof("wrote snapshot with %d plugins to %s", data.Total, w.path)

	if w.storage == nil {
		return nil
	}
	_, err = w.storage.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      w.bucket,
		Key:         aws.String(w.key),
		Body:        bytes.NewReader(encoded),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	w.log.Infof("uploaded snapshot to bucket %s as %s", aws.ToString(w.bucket), w.key)
	return nil
}
