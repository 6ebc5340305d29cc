package model

import "gorm.io/gorm"

// DataSource describes the provenance of the data behind a measure version.
// A version owns its data sources exclusively; they are replaced wholesale,
// by position index, on every save of the owning form.
type DataSource struct {
	gorm.Model
	MeasureVersionID uint `gorm:"not null;index"`
	Position         int  `gorm:"not null;default:0"`

	Title                      string
	AdministrativeData         bool
	SurveyData                 bool
	TypeOfStatisticID          *uint
	Publisher                  *string
	SourceURL                  string
	PublicationDate            string
	NoteOnCorrectionsOrUpdates string
	FrequencyOfReleaseID       *uint
	FrequencyOfReleaseOther    string
	Purpose                    string
}

func (DataSource) TableName() string {
	return "data_sources"
}

// Copy returns a detached copy with no identity or owner.
func (ds *DataSource) Copy() *DataSource {
	clone := *ds
	clone.Model = gorm.Model{}
	clone.MeasureVersionID = 0
	return &clone
}

// HasContent reports whether any substantive field carries a value. Rows
// without content are never persisted.
func (ds *DataSource) HasContent() bool {
	return ds.Title != "" ||
		ds.AdministrativeData ||
		ds.SurveyData ||
		ds.TypeOfStatisticID != nil ||
		ds.Publisher != nil ||
		ds.SourceURL != "" ||
		ds.PublicationDate != "" ||
		ds.NoteOnCorrectionsOrUpdates != "" ||
		ds.FrequencyOfReleaseID != nil ||
		ds.FrequencyOfReleaseOther != "" ||
		ds.Purpose != ""
}

// TypeOfStatistic is reference data for the "type of statistic" radio group.
type TypeOfStatistic struct {
	ID       uint   `gorm:"primaryKey"`
	Internal string `gorm:"not null"`
	External string `gorm:"not null"`
	Position int    `gorm:"not null;default:0"`
}

func (TypeOfStatistic) TableName() string {
	return "type_of_statistic"
}

// FrequencyOfRelease is reference data for the publication frequency radio
// group. The "Other" entry pairs with a free-text field on the form.
type FrequencyOfRelease struct {
	ID          uint   `gorm:"primaryKey"`
	Description string `gorm:"not null"`
	Position    int    `gorm:"not null;default:0"`
}

func (FrequencyOfRelease) TableName() string {
	return "frequency_of_release"
}

// LowestLevelOfGeography is reference data for the geography radio group.
type LowestLevelOfGeography struct {
	Name        string `gorm:"primaryKey"`
	Description *string
	Position    int `gorm:"not null;default:0"`
}

func (LowestLevelOfGeography) TableName() string {
	return "lowest_level_of_geography"
}
