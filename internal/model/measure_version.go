package model

import (
	"time"

	"gorm.io/gorm"
)

// PageTypeMeasure and PageTypeSubtopic distinguish real measure versions from
// the synthetic subtopic rows that measure versions are parented to so the
// display tree resolves.
const (
	PageTypeMeasure  = "measure"
	PageTypeSubtopic = "subtopic"
)

// MeasureVersion is a snapshot of a measure's content at a version number.
// Once published a version is immutable; edits happen on a new version.
// All versions of one measure lineage share a stable GUID.
type MeasureVersion struct {
	gorm.Model
	GUID      string `gorm:"not null;index"`
	Version   string `gorm:"not null"` // "major.minor"
	Slug      string `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	PageType  string `gorm:"not null;default:measure"`
	MeasureID uint   `gorm:"index"`

	Status      PublishStatus `gorm:"not null;default:DRAFT"`
	Latest      bool          `gorm:"not null;default:false"`
	Published   bool          `gorm:"not null;default:false"`
	PublishedAt *time.Time
	CreatedBy   string
	UpdatedBy   string
	ReviewToken string

	// Parent linkage to the owning subtopic's synthetic page row.
	ParentID      *uint
	ParentGUID    *string
	ParentVersion *string

	Position int `gorm:"not null;default:0"`

	// Geographic coverage.
	TimeCovered              string
	England                  bool
	Wales                    bool
	Scotland                 bool
	NorthernIreland          bool
	LowestLevelOfGeographyID *string

	// Commentary.
	Summary                     string
	MeasureSummary              string
	NeedToKnow                  string
	EthnicityDefinitionSummary  string
	Methodology                 string
	SuppressionAndDisclosure    string
	Estimation                  string
	RelatedPublications         string
	QMIURL                      string
	FurtherTechnicalInformation string

	// Edit summaries, cleared on every new version.
	ExternalEditSummary string
	InternalEditSummary string

	InternalReference string
	PublicationDate   *time.Time

	// Contact details.
	ContactName   string
	ContactEmail  string
	ContactPhone  string
	Contact2Name  string
	Contact2Email string
	Contact2Phone string

	Measure     *Measure      `gorm:"foreignKey:MeasureID"`
	Dimensions  []*Dimension  `gorm:"foreignKey:MeasureVersionID"`
	DataSources []*DataSource `gorm:"foreignKey:MeasureVersionID"`
	Uploads     []*Upload     `gorm:"foreignKey:MeasureVersionID"`
}

func (MeasureVersion) TableName() string {
	return "measure_versions"
}

// Major returns the major component of the version number.
func (mv *MeasureVersion) Major() int {
	major, _, _ := ParseVersionNumber(mv.Version)
	return major
}

// Minor returns the minor component of the version number.
func (mv *MeasureVersion) Minor() int {
	_, minor, _ := ParseVersionNumber(mv.Version)
	return minor
}

// Copy returns a detached content copy of the version. Identity, child rows
// and workflow bookkeeping are not carried over; the caller owns those.
func (mv *MeasureVersion) Copy() *MeasureVersion {
	clone := *mv
	clone.Model = gorm.Model{}
	clone.Measure = nil
	clone.Dimensions = nil
	clone.DataSources = nil
	clone.Uploads = nil
	clone.ReviewToken = ""
	return &clone
}

// GetDimension finds an owned dimension by guid.
func (mv *MeasureVersion) GetDimension(guid string) *Dimension {
	for _, dimension := range mv.Dimensions {
		if dimension.GUID == guid {
			return dimension
		}
	}
	return nil
}

// GetUpload finds an owned upload by guid.
func (mv *MeasureVersion) GetUpload(guid string) *Upload {
	for _, upload := range mv.Uploads {
		if upload.GUID == guid {
			return upload
		}
	}
	return nil
}
