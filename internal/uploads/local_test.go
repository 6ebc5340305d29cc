package uploads

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rdu/measures/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestLocalStore_PutGetCopyDelete(t *testing.T) {
	fs := NewLocalStore(t.TempDir())
	ctx := context.TODO()

	err := fs.Put(ctx, "abc/data.csv", strings.NewReader("a,b\n"), 4)
	assert.NoError(t, err)

	exists, err := fs.Exists(ctx, "abc/data.csv")
	assert.NoError(t, err)
	assert.True(t, exists)

	err = fs.Copy(ctx, "abc/data.csv", "def/data.csv")
	assert.NoError(t, err)

	r, err := fs.Get(ctx, "def/data.csv")
	assert.NoError(t, err)
	content, err := io.ReadAll(r)
	r.Close()
	assert.NoError(t, err)
	assert.Equal(t, "a,b\n", string(content))

	err = fs.Delete(ctx, "abc/data.csv")
	assert.NoError(t, err)

	exists, err = fs.Exists(ctx, "abc/data.csv")
	assert.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing object is not an error.
	assert.NoError(t, fs.Delete(ctx, "abc/data.csv"))
}

func TestCreateGUID_Unique(t *testing.T) {
	a := CreateGUID("data.csv")
	b := CreateGUID("data.csv")
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 40)
}

func TestService_CopyBetweenMeasureVersions(t *testing.T) {
	fs := NewLocalStore(t.TempDir())
	svc := NewService(fs)
	ctx := context.TODO()

	sourceUpload := &model.Upload{GUID: CreateGUID("data.csv"), FileName: "data.csv"}
	err := svc.Save(ctx, sourceUpload, strings.NewReader("a,b\n"), 4)
	assert.NoError(t, err)

	targetUpload := &model.Upload{GUID: CreateGUID("data.csv"), FileName: "data.csv"}

	from := &model.MeasureVersion{Version: "1.0", Uploads: []*model.Upload{sourceUpload}}
	to := &model.MeasureVersion{Version: "1.1", Uploads: []*model.Upload{targetUpload}}

	err = svc.CopyBetweenMeasureVersions(ctx, from, to)
	assert.NoError(t, err)

	r, err := svc.Get(ctx, targetUpload)
	assert.NoError(t, err)
	content, err := io.ReadAll(r)
	r.Close()
	assert.NoError(t, err)
	assert.Equal(t, "a,b\n", string(content))
}

func TestService_CopyBetweenMeasureVersions_MissingSource(t *testing.T) {
	svc := NewService(NewLocalStore(t.TempDir()))
	ctx := context.TODO()

	from := &model.MeasureVersion{Version: "1.0"}
	to := &model.MeasureVersion{
		Version: "1.1",
		Uploads: []*model.Upload{{GUID: CreateGUID("data.csv"), FileName: "data.csv"}},
	}

	err := svc.CopyBetweenMeasureVersions(ctx, from, to)
	assert.Error(t, err)
}
