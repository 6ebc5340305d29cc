package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/rdu/measures/internal/forms"
	"github.com/rdu/measures/internal/model"
	"github.com/rdu/measures/internal/store"
	"github.com/rdu/measures/internal/tester"
	"github.com/stretchr/testify/assert"
)

func TestLookupService_GetAllTopics(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	lookup := NewLookupService(st)

	ctx := context.TODO()
	for _, topic := range []*model.Topic{
		{Slug: "work-pay-and-benefits", Title: "Work, pay and benefits"},
		{Slug: "health", Title: "Health"},
		{Slug: "testing-space", Title: "Testing space"},
		{Slug: "education", Title: "Education, skills and training"},
	} {
		assert.NoError(t, st.CreateTopic(ctx, topic))
	}

	topics, err := lookup.GetAllTopics(ctx)
	assert.NoError(t, err)
	assert.Len(t, topics, 3)

	// Sorted by title, sandbox excluded.
	assert.Equal(t, "education", topics[0].Slug)
	assert.Equal(t, "health", topics[1].Slug)
	assert.Equal(t, "work-pay-and-benefits", topics[2].Slug)

	// Direct lookup still reaches the sandbox.
	sandbox, err := lookup.GetTopic(ctx, "testing-space")
	assert.NoError(t, err)
	assert.Equal(t, "testing-space", sandbox.Slug)
}

func TestLookupService_GetTopic_NotFound(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	lookup := NewLookupService(store.NewGormStore(tester.TestDB()))

	_, err := lookup.GetTopic(context.TODO(), "missing")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestLookupService_GetMeasureVersion_PathDisambiguation(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	lookup := NewLookupService(st)
	ctx := context.TODO()

	// The same measure slug and version under two different topics.
	health := tester.SeedTopic(st, "health", "outcomes")
	crime := tester.SeedTopic(st, "crime", "policing")

	healthMV, err := ps.CreateMeasure(ctx, health, pageForm("Detention Rates"), nil, "editor")
	assert.NoError(t, err)
	crimeMV, err := ps.CreateMeasure(ctx, crime, pageForm("Detention Rates"), nil, "editor")
	assert.NoError(t, err)

	got, err := lookup.GetMeasureVersion(ctx, "health", "outcomes", "detention-rates", "1.0")
	assert.NoError(t, err)
	assert.Equal(t, healthMV.ID, got.ID)

	got, err = lookup.GetMeasureVersion(ctx, "crime", "policing", "detention-rates", "1.0")
	assert.NoError(t, err)
	assert.Equal(t, crimeMV.ID, got.ID)

	_, err = lookup.GetMeasureVersion(ctx, "health", "policing", "detention-rates", "1.0")
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestLookupService_GetMeasurePageHierarchy(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	lookup := NewLookupService(st)
	ctx := context.TODO()

	subtopic := tester.SeedTopic(st, "health", "outcomes")
	mv, err := ps.CreateMeasure(ctx, subtopic, pageForm("Detention Rates"), nil, "editor")
	assert.NoError(t, err)

	dimensionForm := forms.NewDimensionForm(false)
	dimensionForm.Bind(url.Values{"title": {"By ethnicity"}})
	assert.True(t, dimensionForm.Validate())
	dimension, err := ps.CreateDimension(ctx, mv, dimensionForm)
	assert.NoError(t, err)

	hierarchy, err := lookup.GetMeasurePageHierarchy(ctx, "health", "outcomes", "detention-rates", "1.0", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "health", hierarchy.Topic.Slug)
	assert.Equal(t, "outcomes", hierarchy.Subtopic.Slug)
	assert.Equal(t, mv.MeasureID, hierarchy.Measure.ID)
	assert.Equal(t, mv.ID, hierarchy.MeasureVersion.ID)
	assert.Nil(t, hierarchy.Dimension)

	hierarchy, err = lookup.GetMeasurePageHierarchy(ctx, "health", "outcomes", "detention-rates", "1.0", dimension.GUID, "")
	assert.NoError(t, err)
	assert.Equal(t, dimension.GUID, hierarchy.Dimension.GUID)

	// Any bad level of the path reads as the one uniform error.
	_, err = lookup.GetMeasurePageHierarchy(ctx, "health", "outcomes", "detention-rates", "1.0", "missing", "")
	assert.ErrorIs(t, err, ErrInvalidPageHierarchy)

	_, err = lookup.GetMeasurePageHierarchy(ctx, "health", "outcomes", "detention-rates", "1.0", "", "missing")
	assert.ErrorIs(t, err, ErrInvalidPageHierarchy)

	_, err = lookup.GetMeasurePageHierarchy(ctx, "health", "outcomes", "detention-rates", "9.9", "", "")
	assert.ErrorIs(t, err, ErrInvalidPageHierarchy)

	_, err = lookup.GetMeasurePageHierarchy(ctx, "missing", "outcomes", "detention-rates", "1.0", "", "")
	assert.ErrorIs(t, err, ErrInvalidPageHierarchy)
}

func TestLookupService_PreviousVersions(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	lookup := NewLookupService(st)
	ctx := context.TODO()

	subtopic := tester.SeedTopic(st, "health", "outcomes")

	v10, err := ps.CreateMeasure(ctx, subtopic, pageForm("Test Measure"), nil, "editor")
	assert.NoError(t, err)
	v11, err := ps.CreateNewMeasureVersion(ctx, v10.ID, model.VersionTypeMinor, "editor")
	assert.NoError(t, err)
	v12, err := ps.CreateNewMeasureVersion(ctx, v11.ID, model.VersionTypeMinor, "editor")
	assert.NoError(t, err)
	v20, err := ps.CreateNewMeasureVersion(ctx, v12.ID, model.VersionTypeMajor, "editor")
	assert.NoError(t, err)

	// 1.0 and 1.1 were superseded by minor updates; only the final 1.x
	// counts as a previous major.
	majors, err := lookup.GetPreviousMajorVersions(ctx, v20)
	assert.NoError(t, err)
	assert.Len(t, majors, 1)
	assert.Equal(t, "1.2", majors[0].Version)

	minors, err := lookup.GetPreviousMinorVersions(ctx, v12)
	assert.NoError(t, err)
	assert.Len(t, minors, 2)
	assert.Equal(t, "1.1", minors[0].Version)
	assert.Equal(t, "1.0", minors[1].Version)

	minors, err = lookup.GetPreviousMinorVersions(ctx, v20)
	assert.NoError(t, err)
	assert.Empty(t, minors)
}

func TestLookupService_GetFirstPublishedDate(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	lookup := NewLookupService(st)
	ctx := context.TODO()

	subtopic := tester.SeedTopic(st, "health", "outcomes")

	v10, err := ps.CreateMeasure(ctx, subtopic, pageForm("Test Measure"), nil, "editor")
	assert.NoError(t, err)

	published := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	v10.Published = true
	v10.PublishedAt = &published
	assert.NoError(t, st.UpdateMeasureVersion(ctx, v10))

	v11, err := ps.CreateNewMeasureVersion(ctx, v10.ID, model.VersionTypeMinor, "editor")
	assert.NoError(t, err)

	first, err := lookup.GetFirstPublishedDate(ctx, v11)
	assert.NoError(t, err)
	assert.NotNil(t, first)
	assert.True(t, first.Equal(published))

	// A new major starts its own clock: its first-published date is its own,
	// not 1.0's.
	v20, err := ps.CreateNewMeasureVersion(ctx, v11.ID, model.VersionTypeMajor, "editor")
	assert.NoError(t, err)

	republished := time.Date(2026, 3, 3, 9, 30, 0, 0, time.UTC)
	v20.Published = true
	v20.PublishedAt = &republished
	assert.NoError(t, st.UpdateMeasureVersion(ctx, v20))

	first, err = lookup.GetFirstPublishedDate(ctx, v20)
	assert.NoError(t, err)
	assert.NotNil(t, first)
	assert.True(t, first.Equal(republished))
}

func TestLookupService_GetLatestVersionOfAllMeasures(t *testing.T) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	ps := newPageService(t, st)
	lookup := NewLookupService(st)
	ctx := context.TODO()

	subtopic := tester.SeedTopic(st, "health", "outcomes")

	// Measure A: 1.0 published, 1.1 draft.
	a10, err := ps.CreateMeasure(ctx, subtopic, pageForm("Alpha Measure"), nil, "editor")
	assert.NoError(t, err)
	_, err = ps.NextState(ctx, a10.ID, "reviewer") // internal review
	assert.NoError(t, err)
	_, err = ps.NextState(ctx, a10.ID, "reviewer") // department review
	assert.NoError(t, err)
	_, err = ps.NextState(ctx, a10.ID, "reviewer") // approved
	assert.NoError(t, err)
	_, err = ps.NextState(ctx, a10.ID, "reviewer") // published
	assert.NoError(t, err)

	_, err = ps.CreateNewMeasureVersion(ctx, a10.ID, model.VersionTypeMinor, "editor")
	assert.NoError(t, err)

	// Measure B: draft only, never published.
	_, err = ps.CreateMeasure(ctx, subtopic, pageForm("Beta Measure"), nil, "editor")
	assert.NoError(t, err)

	// Public view: only the published row of measure A.
	publicView, err := lookup.GetLatestVersionOfAllMeasures(ctx, false)
	assert.NoError(t, err)
	assert.Len(t, publicView, 1)
	assert.Equal(t, "Alpha Measure", publicView[0].Title)
	assert.Equal(t, "1.0", publicView[0].Version)

	// Draft survey: the unpublished work, newest version per measure.
	draftView, err := lookup.GetLatestVersionOfAllMeasures(ctx, true)
	assert.NoError(t, err)
	assert.Len(t, draftView, 2)
	assert.Equal(t, "Alpha Measure", draftView[0].Title)
	assert.Equal(t, "1.1", draftView[0].Version)
	assert.Equal(t, "Beta Measure", draftView[1].Title)
}
