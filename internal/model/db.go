package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Topic{},
		&Subtopic{},
		&Measure{},
		&MeasureVersion{},
		&DataSource{},
		&Dimension{},
		&Upload{},
		&TypeOfStatistic{},
		&FrequencyOfRelease{},
		&LowestLevelOfGeography{},
		&Categorisation{},
		&CategorisationValue{},
		&DimensionCategorisation{},
	)
}
