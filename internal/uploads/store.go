// Package uploads stores the source files attached to measure versions. An
// upload's guid doubles as its storage key, so versioning a measure copies
// the backing objects under fresh keys rather than sharing them.
package uploads

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rdu/measures/internal/model"
)

// FileStore is the backing object store for upload files.
type FileStore interface {
	// Put writes an object.
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	// Copy duplicates an object's content under a new key.
	Copy(ctx context.Context, srcKey, dstKey string) error
	// Delete removes an object.
	Delete(ctx context.Context, key string) error
	// Exists reports whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Get opens an object for reading. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// CreateGUID derives a storage key for an uploaded file. The key is content
// addressed on name and creation instant so re-uploads and copies never
// collide.
func CreateGUID(filename string) string {
	h := sha1.New()
	fmt.Fprintf(h, "%d%s%s", time.Now().UnixNano(), filename, uuid.New().String())
	return hex.EncodeToString(h.Sum(nil))
}

// Key returns the object key of an upload.
func Key(u *model.Upload) string {
	return u.GUID + "/" + u.FileName
}

// Service wraps a FileStore with the measure-version level operations the
// workflow core needs.
type Service struct {
	files FileStore
}

func NewService(files FileStore) *Service {
	return &Service{files: files}
}

// Save stores the content of a new upload.
func (s *Service) Save(ctx context.Context, u *model.Upload, r io.Reader, size int64) error {
	return s.files.Put(ctx, Key(u), r, size)
}

// Get opens an upload's content.
func (s *Service) Get(ctx context.Context, u *model.Upload) (io.ReadCloser, error) {
	return s.files.Get(ctx, Key(u))
}

// Delete removes an upload's content.
func (s *Service) Delete(ctx context.Context, u *model.Upload) error {
	return s.files.Delete(ctx, Key(u))
}

// CopyBetweenMeasureVersions duplicates the backing file of every upload
// attached to the source version into the corresponding (already re-keyed)
// upload of the target version. Uploads correspond by file name. Any missing
// source object fails the whole copy so the caller can abort its
// transaction.
func (s *Service) CopyBetweenMeasureVersions(ctx context.Context, from, to *model.MeasureVersion) error {
	byName := make(map[string]*model.Upload, len(from.Uploads))
	for _, u := range from.Uploads {
		byName[u.FileName] = u
	}

	for _, target := range to.Uploads {
		source, ok := byName[target.FileName]
		if !ok {
			return fmt.Errorf("uploads: no source file for %q on version %s", target.FileName, from.Version)
		}

		if err := s.files.Copy(ctx, Key(source), Key(target)); err != nil {
			return fmt.Errorf("uploads: copy %q: %w", target.FileName, err)
		}
	}

	return nil
}
