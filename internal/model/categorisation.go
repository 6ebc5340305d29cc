package model

// Categorisation is reference data describing a demographic value set, e.g.
// an ethnicity classification. Read-only from the versioning core; used to
// link dimensions into cross-measure reporting.
type Categorisation struct {
	ID       uint   `gorm:"primaryKey"`
	Code     string `gorm:"uniqueIndex;not null"`
	Title    string `gorm:"not null"`
	Position int    `gorm:"not null;default:0"`

	Values []*CategorisationValue `gorm:"many2many:association_values;"`
}

func (Categorisation) TableName() string {
	return "categorisations"
}

// CategorisationValue is a single value within a categorisation, e.g. "Black
// African".
type CategorisationValue struct {
	ID       uint   `gorm:"primaryKey"`
	Value    string `gorm:"not null"`
	Position int    `gorm:"not null;default:0"`
}

func (CategorisationValue) TableName() string {
	return "categorisation_values"
}

// DimensionCategorisation links a dimension to the categorisation its data
// is broken down by.
type DimensionCategorisation struct {
	ID               uint   `gorm:"primaryKey"`
	DimensionGUID    string `gorm:"not null;index"`
	CategorisationID uint   `gorm:"not null;index"`
	IncludesAll      bool
	IncludesUnknown  bool

	Categorisation *Categorisation `gorm:"foreignKey:CategorisationID"`
}

func (DimensionCategorisation) TableName() string {
	return "dimension_categorisations"
}
