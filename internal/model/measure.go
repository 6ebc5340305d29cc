package model

import "gorm.io/gorm"

// Measure is a named statistical indicator. It belongs to one subtopic by
// convention, though the association table permits more. The slug is unique
// within a subtopic, not globally.
type Measure struct {
	gorm.Model
	Slug     string `gorm:"not null;index"`
	Position int    `gorm:"not null;default:0"`
	// Reference is an optional internal measure code, e.g. a departmental id.
	Reference string

	Subtopics []*Subtopic       `gorm:"many2many:subtopic_measures;"`
	Versions  []*MeasureVersion `gorm:"foreignKey:MeasureID"`
}

// Subtopic returns the conventional single owning subtopic.
func (m *Measure) Subtopic() *Subtopic {
	if len(m.Subtopics) == 0 {
		return nil
	}
	return m.Subtopics[0]
}
