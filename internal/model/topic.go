package model

import "gorm.io/gorm"

// Topic is a top-level subject grouping, e.g. "Crime, justice and the law".
type Topic struct {
	gorm.Model
	Slug                  string `gorm:"uniqueIndex;not null"`
	Title                 string `gorm:"not null"`
	Description           string
	AdditionalDescription string

	Subtopics []*Subtopic `gorm:"foreignKey:TopicID"`
}

// Subtopic belongs to exactly one topic. Position defines the display order
// within the topic.
type Subtopic struct {
	gorm.Model
	TopicID  uint   `gorm:"not null;index"`
	Slug     string `gorm:"not null;index"`
	Title    string `gorm:"not null"`
	Position int    `gorm:"not null;default:0"`

	Topic    *Topic     `gorm:"foreignKey:TopicID"`
	Measures []*Measure `gorm:"many2many:subtopic_measures;"`
}
