package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVersionNumber(t *testing.T) {
	major, minor, err := ParseVersionNumber("2.3")
	assert.NoError(t, err)
	assert.Equal(t, 2, major)
	assert.Equal(t, 3, minor)

	_, _, err = ParseVersionNumber("2")
	assert.Error(t, err)

	_, _, err = ParseVersionNumber("a.b")
	assert.Error(t, err)
}

func TestNextVersionNumber(t *testing.T) {
	tests := []struct {
		current     string
		versionType NewVersionType
		want        string
	}{
		{"1.0", VersionTypeMinor, "1.1"},
		{"1.9", VersionTypeMinor, "1.10"},
		{"1.2", VersionTypeMajor, "2.0"},
		{"2.7", VersionTypeMajor, "3.0"},
		{"4.5", VersionTypeNewMeasure, "1.0"},
	}

	for _, tt := range tests {
		got, err := NextVersionNumber(tt.current, tt.versionType)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := NextVersionNumber("bad", VersionTypeMinor)
	assert.Error(t, err)
}

func TestPublishStatus_Next(t *testing.T) {
	next, err := StatusDraft.Next()
	assert.NoError(t, err)
	assert.Equal(t, StatusInternalReview, next)

	next, err = StatusInternalReview.Next()
	assert.NoError(t, err)
	assert.Equal(t, StatusDepartmentReview, next)

	next, err = StatusDepartmentReview.Next()
	assert.NoError(t, err)
	assert.Equal(t, StatusApproved, next)

	next, err = StatusApproved.Next()
	assert.NoError(t, err)
	assert.Equal(t, StatusPublished, next)

	_, err = StatusPublished.Next()
	assert.Error(t, err)

	_, err = StatusRejected.Next()
	assert.Error(t, err)
}

func TestPublishStatus_CanReject(t *testing.T) {
	assert.True(t, StatusInternalReview.CanReject())
	assert.True(t, StatusDepartmentReview.CanReject())
	assert.False(t, StatusDraft.CanReject())
	assert.False(t, StatusPublished.CanReject())
}

func TestMeasureVersion_Copy(t *testing.T) {
	token := "tok"
	mv := &MeasureVersion{
		GUID:        "guid",
		Version:     "1.2",
		Slug:        "slug",
		Title:       "Title",
		Status:      StatusPublished,
		ReviewToken: token,
		Dimensions:  []*Dimension{{GUID: "d"}},
		DataSources: []*DataSource{{Title: "ds"}},
		Uploads:     []*Upload{{GUID: "u"}},
	}
	mv.ID = 42

	clone := mv.Copy()
	assert.Equal(t, uint(0), clone.ID)
	assert.Equal(t, "guid", clone.GUID)
	assert.Equal(t, "Title", clone.Title)
	assert.Empty(t, clone.ReviewToken)
	assert.Nil(t, clone.Dimensions)
	assert.Nil(t, clone.DataSources)
	assert.Nil(t, clone.Uploads)
}
