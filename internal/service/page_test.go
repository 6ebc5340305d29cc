package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/rdu/measures/internal/forms"
	"github.com/rdu/measures/internal/model"
	"github.com/rdu/measures/internal/store"
	"github.com/rdu/measures/internal/tester"
	"github.com/rdu/measures/internal/uploads"
	"github.com/stretchr/testify/assert"
)

func newPageService(t *testing.T, st store.Store) *PageService {
	files := uploads.NewService(uploads.NewLocalStore(t.TempDir()))
	return NewPageService(st, files, []byte("test-signing-key"))
}

func pageForm(title string) *forms.MeasurePageForm {
	form := forms.NewMeasurePageForm(false, nil)
	form.Bind(url.Values{"title": {title}})
	form.Validate()
	return form
}

func dataSourceForm(values url.Values) *forms.DataSourceForm {
	form := forms.NewDataSourceForm(false, nil, nil)
	form.Bind(values)
	form.Validate()
	return form
}

func TestPageService_CreateMeasure(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	mv, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "editor@example.org")
	assert.NoError(t, err)
	assert.NotNil(t, mv)

	assert.Equal(t, "test-measure", mv.Slug)
	assert.Equal(t, "Test Measure", mv.Title)
	assert.Equal(t, "1.0", mv.Version)
	assert.Equal(t, model.StatusDraft, mv.Status)
	assert.True(t, mv.Latest)
	assert.False(t, mv.Published)
	assert.Equal(t, 0, mv.Position)
	assert.Equal(t, "editor@example.org", mv.CreatedBy)
	assert.NotEmpty(t, mv.GUID)
	assert.NotNil(t, mv.ParentID)

	second, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Another Measure"), nil, "editor@example.org")
	assert.NoError(t, err)
	assert.Equal(t, 1, second.Position)
}

func TestPageService_CreateMeasure_DuplicateTitle(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	_, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "editor")
	assert.NoError(t, err)

	_, err = ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "editor")
	var exists *PageExistsError
	assert.ErrorAs(t, err, &exists)
	assert.Equal(t, "Test Measure", exists.Title)
}

func TestPageService_CreateMeasure_DataSources(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	sources := []*forms.DataSourceForm{
		dataSourceForm(url.Values{"title": {"Primary source"}}),
		dataSourceForm(url.Values{"title": {"Secondary source"}}),
		dataSourceForm(url.Values{}), // blank, never persisted
	}

	mv, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), sources, "editor")
	assert.NoError(t, err)

	got, err := st.GetMeasureVersionByID(context.TODO(), mv.ID)
	assert.NoError(t, err)
	assert.Len(t, got.DataSources, 2)
	assert.Equal(t, "Primary source", got.DataSources[0].Title)
	assert.Equal(t, 0, got.DataSources[0].Position)
	assert.Equal(t, "Secondary source", got.DataSources[1].Title)
	assert.Equal(t, 1, got.DataSources[1].Position)
}

func TestPageService_CreateNewMeasureVersion_Minor(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	v1, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "author")
	assert.NoError(t, err)

	v11, err := ps.CreateNewMeasureVersion(context.TODO(), v1.ID, model.VersionTypeMinor, "updater")
	assert.NoError(t, err)

	assert.Equal(t, "1.1", v11.Version)
	assert.Equal(t, v1.GUID, v11.GUID)
	assert.Equal(t, v1.MeasureID, v11.MeasureID)
	assert.Equal(t, model.StatusDraft, v11.Status)
	assert.True(t, v11.Latest)
	assert.False(t, v11.Published)
	assert.Nil(t, v11.PublishedAt)
	assert.Equal(t, "updater", v11.CreatedBy)
	assert.Empty(t, v11.InternalEditSummary)
	assert.Empty(t, v11.ExternalEditSummary)

	// The latest flag moved off the source version.
	source, err := st.GetMeasureVersionByID(context.TODO(), v1.ID)
	assert.NoError(t, err)
	assert.False(t, source.Latest)
}

func TestPageService_CreateNewMeasureVersion_Major(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	v1, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "author")
	assert.NoError(t, err)

	v2, err := ps.CreateNewMeasureVersion(context.TODO(), v1.ID, model.VersionTypeMajor, "updater")
	assert.NoError(t, err)
	assert.Equal(t, "2.0", v2.Version)
	assert.Equal(t, v1.GUID, v2.GUID)
}

func TestPageService_CreateNewMeasureVersion_SlotOccupied(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	v1, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "author")
	assert.NoError(t, err)

	_, err = ps.CreateNewMeasureVersion(context.TODO(), v1.ID, model.VersionTypeMinor, "updater")
	assert.NoError(t, err)

	_, err = ps.CreateNewMeasureVersion(context.TODO(), v1.ID, model.VersionTypeMinor, "updater")
	assert.ErrorIs(t, err, ErrUpdateAlreadyExists)
}

func TestPageService_CreateNewMeasureVersion_CopiesChildren(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	files := uploads.NewService(uploads.NewLocalStore(t.TempDir()))
	ps := NewPageService(st, files, []byte("test-signing-key"))
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	sources := []*forms.DataSourceForm{dataSourceForm(url.Values{"title": {"Primary source"}})}
	v1, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), sources, "author")
	assert.NoError(t, err)

	v1full, err := st.GetMeasureVersionByID(context.TODO(), v1.ID)
	assert.NoError(t, err)

	dimensionForm := forms.NewDimensionForm(false)
	dimensionForm.Bind(url.Values{"title": {"By ethnicity"}})
	assert.True(t, dimensionForm.Validate())
	dimension, err := ps.CreateDimension(context.TODO(), v1full, dimensionForm)
	assert.NoError(t, err)

	uploadForm := forms.NewUploadForm()
	uploadForm.Bind(url.Values{"title": {"Source data"}, "file_name": {"data.csv"}})
	assert.True(t, uploadForm.Validate())
	upload, err := ps.CreateUpload(context.TODO(), v1full, uploadForm, []byte("a,b\n1,2\n"))
	assert.NoError(t, err)

	v11, err := ps.CreateNewMeasureVersion(context.TODO(), v1.ID, model.VersionTypeMinor, "updater")
	assert.NoError(t, err)

	got, err := st.GetMeasureVersionByID(context.TODO(), v11.ID)
	assert.NoError(t, err)

	assert.Len(t, got.Dimensions, 1)
	assert.Equal(t, "By ethnicity", got.Dimensions[0].Title)
	assert.NotEqual(t, dimension.GUID, got.Dimensions[0].GUID)

	assert.Len(t, got.DataSources, 1)
	assert.Equal(t, "Primary source", got.DataSources[0].Title)
	assert.NotEqual(t, v1full.DataSources[0].ID, got.DataSources[0].ID)

	assert.Len(t, got.Uploads, 1)
	assert.Equal(t, "data.csv", got.Uploads[0].FileName)
	assert.NotEqual(t, upload.GUID, got.Uploads[0].GUID)

	// The backing file was duplicated under the new key.
	r, err := files.Get(context.TODO(), got.Uploads[0])
	assert.NoError(t, err)
	r.Close()
}

func TestPageService_CreateNewMeasureVersion_NewMeasure(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	v1, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "author")
	assert.NoError(t, err)

	fork, err := ps.CreateNewMeasureVersion(context.TODO(), v1.ID, model.VersionTypeNewMeasure, "author")
	assert.NoError(t, err)

	assert.Equal(t, "1.0", fork.Version)
	assert.NotEqual(t, v1.GUID, fork.GUID)
	assert.NotEqual(t, v1.MeasureID, fork.MeasureID)
	assert.Equal(t, "COPY OF Test Measure", fork.Title)
	assert.Equal(t, "test-measure-copy", fork.Slug)
	assert.True(t, fork.Latest)

	// The original lineage keeps its own latest flag.
	source, err := st.GetMeasureVersionByID(context.TODO(), v1.ID)
	assert.NoError(t, err)
	assert.True(t, source.Latest)

	// A second fork disambiguates with a numbered suffix.
	fork2, err := ps.CreateNewMeasureVersion(context.TODO(), v1.ID, model.VersionTypeNewMeasure, "author")
	assert.NoError(t, err)
	assert.Equal(t, "test-measure-copy-2", fork2.Slug)
}

func TestPageService_UpdateMeasureVersion(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	v1, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "author")
	assert.NoError(t, err)

	form := forms.NewMeasurePageForm(false, nil)
	form.Bind(url.Values{
		"title":        {"Test Measure"},
		"summary":      {"New findings"},
		"time_covered": {"2019/20"},
	})
	assert.True(t, form.Validate())

	updated, err := ps.UpdateMeasureVersion(context.TODO(), v1.ID, form, nil, "updater")
	assert.NoError(t, err)
	assert.Equal(t, "New findings", updated.Summary)
	assert.Equal(t, "2019/20", updated.TimeCovered)
	assert.Equal(t, "updater", updated.UpdatedBy)
}

func TestPageService_UpdateMeasureVersion_RejectedReturnsToDraft(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	v1, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "author")
	assert.NoError(t, err)

	_, err = ps.NextState(context.TODO(), v1.ID, "author")
	assert.NoError(t, err)
	_, err = ps.Reject(context.TODO(), v1.ID, "reviewer")
	assert.NoError(t, err)

	updated, err := ps.UpdateMeasureVersion(context.TODO(), v1.ID, pageForm("Test Measure"), nil, "author")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusDraft, updated.Status)
}

func TestPageService_UpdateMeasureVersion_ApprovedIsImmutable(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	v1, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), nil, "author")
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = ps.NextState(context.TODO(), v1.ID, "reviewer")
		assert.NoError(t, err)
	}

	_, err = ps.UpdateMeasureVersion(context.TODO(), v1.ID, pageForm("Test Measure"), nil, "author")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestPageService_SetDataSources_Replacement(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	subtopic := tester.SeedTopic(st, "health", "access-to-treatment")

	sources := []*forms.DataSourceForm{
		dataSourceForm(url.Values{"title": {"First"}}),
		dataSourceForm(url.Values{"title": {"Second"}}),
	}
	v1, err := ps.CreateMeasure(context.TODO(), subtopic, pageForm("Test Measure"), sources, "author")
	assert.NoError(t, err)

	// Remove the first source, keep the second with a new title.
	update := []*forms.DataSourceForm{
		dataSourceForm(url.Values{"remove_data_source": {"true"}}),
		dataSourceForm(url.Values{"title": {"Second, renamed"}}),
	}

	_, err = ps.UpdateMeasureVersion(context.TODO(), v1.ID, pageForm("Test Measure"), update, "author")
	assert.NoError(t, err)

	got, err := st.GetMeasureVersionByID(context.TODO(), v1.ID)
	assert.NoError(t, err)
	assert.Len(t, got.DataSources, 1)
	assert.Equal(t, "Second, renamed", got.DataSources[0].Title)
	assert.Equal(t, 0, got.DataSources[0].Position)
}
