package model

import (
	"time"

	"github.com/google/uuid"
)

// Dimension is a labeled slice of a measure's data, e.g. "By ethnicity over
// time", with chart and table payloads built in the editor. Dimensions are
// deep-copied when a new measure version is created.
type Dimension struct {
	GUID             string `gorm:"primaryKey"`
	MeasureVersionID uint   `gorm:"not null;index"`
	Position         int    `gorm:"not null;default:0"`

	Title      string
	TimePeriod string
	Summary    string

	// JSON payloads produced by the chart/table builders.
	Chart           string
	Table           string
	ChartSourceData string
	TableSourceData string

	CreatedAt time.Time
	UpdatedAt time.Time

	Categorisations []*DimensionCategorisation `gorm:"foreignKey:DimensionGUID"`
}

func (Dimension) TableName() string {
	return "dimensions"
}

// Copy returns an independent copy under a fresh guid with no owner.
func (d *Dimension) Copy() *Dimension {
	clone := *d
	clone.GUID = uuid.New().String()
	clone.MeasureVersionID = 0
	clone.CreatedAt = time.Time{}
	clone.UpdatedAt = time.Time{}

	clone.Categorisations = make([]*DimensionCategorisation, 0, len(d.Categorisations))
	for _, dc := range d.Categorisations {
		link := *dc
		link.ID = 0
		link.DimensionGUID = ""
		clone.Categorisations = append(clone.Categorisations, &link)
	}

	return &clone
}
