package store

import (
	"context"
	"errors"
	"time"

	"github.com/rdu/measures/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateTopic(ctx context.Context, topic *model.Topic) error {
	return g.db.WithContext(ctx).Create(topic).Error
}

func (g *GormStore) GetTopicBySlug(ctx context.Context, slug string) (*model.Topic, error) {
	var topic model.Topic
	err := g.db.WithContext(ctx).
		Preload("Subtopics", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("slug = ?", slug).
		First(&topic).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (g *GormStore) ListTopics(ctx context.Context) ([]*model.Topic, error) {
	var topics []*model.Topic
	err := g.db.WithContext(ctx).
		Preload("Subtopics", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&topics).Error
	return topics, err
}

func (g *GormStore) CreateSubtopic(ctx context.Context, subtopic *model.Subtopic) error {
	return g.db.WithContext(ctx).Create(subtopic).Error
}

func (g *GormStore) GetSubtopic(ctx context.Context, topicSlug, subtopicSlug string) (*model.Subtopic, error) {
	var topic model.Topic
	err := g.db.WithContext(ctx).Where("slug = ?", topicSlug).First(&topic).Error
	if err != nil {
		return nil, err
	}

	var subtopic model.Subtopic
	err = g.db.WithContext(ctx).
		Preload("Topic").
		Where("topic_id = ? AND slug = ?", topic.ID, subtopicSlug).
		First(&subtopic).Error
	if err != nil {
		return nil, err
	}
	return &subtopic, nil
}

func (g *GormStore) CreateMeasure(ctx context.Context, measure *model.Measure) error {
	return g.db.WithContext(ctx).Create(measure).Error
}

func (g *GormStore) GetMeasure(ctx context.Context, topicSlug, subtopicSlug, measureSlug string) (*model.Measure, error) {
	subtopic, err := g.GetSubtopic(ctx, topicSlug, subtopicSlug)
	if err != nil {
		return nil, err
	}

	var measure model.Measure
	err = g.db.WithContext(ctx).
		Preload("Subtopics.Topic").
		Joins("JOIN subtopic_measures sm ON sm.measure_id = measures.id").
		Where("sm.subtopic_id = ? AND measures.slug = ?", subtopic.ID, measureSlug).
		First(&measure).Error
	if err != nil {
		return nil, err
	}
	return &measure, nil
}

func (g *GormStore) MeasureSlugExists(ctx context.Context, subtopicID uint, slug string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&model.Measure{}).
		Joins("JOIN subtopic_measures sm ON sm.measure_id = measures.id").
		Where("sm.subtopic_id = ? AND measures.slug = ?", subtopicID, slug).
		Count(&count).Error
	return count > 0, err
}

func (g *GormStore) CountMeasures(ctx context.Context, subtopicID uint) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Table("subtopic_measures").
		Where("subtopic_id = ?", subtopicID).
		Count(&count).Error
	return count, err
}

func (g *GormStore) CreateMeasureVersion(ctx context.Context, mv *model.MeasureVersion) error {
	return g.db.WithContext(ctx).Create(mv).Error
}

// UpdateMeasureVersion saves the version row itself. Child rows are managed
// through their own store methods, not upserted through the association.
func (g *GormStore) UpdateMeasureVersion(ctx context.Context, mv *model.MeasureVersion) error {
	return g.db.WithContext(ctx).Omit(clause.Associations).Save(mv).Error
}

func (g *GormStore) GetMeasureVersionByID(ctx context.Context, id uint) (*model.MeasureVersion, error) {
	var mv model.MeasureVersion
	err := g.db.WithContext(ctx).
		Preload("Measure.Subtopics.Topic").
		Preload("Dimensions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Dimensions.Categorisations").
		Preload("DataSources", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Uploads").
		Where("id = ?", id).
		First(&mv).Error
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

func (g *GormStore) GetVersionByMeasureAndNumber(ctx context.Context, measureID uint, version string) (*model.MeasureVersion, error) {
	var mv model.MeasureVersion
	err := g.db.WithContext(ctx).
		Where("measure_id = ? AND version = ?", measureID, version).
		First(&mv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

func (g *GormStore) ListVersionsBySlugAndVersion(ctx context.Context, measureSlug, version string) ([]*model.MeasureVersion, error) {
	var versions []*model.MeasureVersion
	err := g.db.WithContext(ctx).
		Preload("Measure.Subtopics.Topic").
		Preload("Dimensions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("DataSources", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Uploads").
		Joins("JOIN measures ON measures.id = measure_versions.measure_id").
		Where("measures.slug = ? AND measure_versions.version = ? AND measure_versions.page_type = ?",
			measureSlug, version, model.PageTypeMeasure).
		Find(&versions).Error
	return versions, err
}

func (g *GormStore) ListLineage(ctx context.Context, guid string) ([]*model.MeasureVersion, error) {
	var versions []*model.MeasureVersion
	err := g.db.WithContext(ctx).
		Where("guid = ?", guid).
		Order("created_at DESC").
		Find(&versions).Error
	return versions, err
}

// LockLineage takes FOR UPDATE row locks on the lineage so concurrent
// version creation serializes and exactly one version keeps the latest flag.
// SQLite has no row locks; its single-writer transactions give the same
// guarantee.
func (g *GormStore) LockLineage(ctx context.Context, guid string) ([]*model.MeasureVersion, error) {
	tx := g.db.WithContext(ctx)
	if g.db.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var versions []*model.MeasureVersion
	err := tx.Where("guid = ?", guid).Order("created_at DESC").Find(&versions).Error
	return versions, err
}

func (g *GormStore) ClearLatest(ctx context.Context, guid string, exceptID uint) error {
	return g.db.WithContext(ctx).
		Model(&model.MeasureVersion{}).
		Where("guid = ? AND id <> ? AND latest = ?", guid, exceptID, true).
		Update("latest", false).Error
}

func (g *GormStore) GetSubtopicPage(ctx context.Context, subtopicSlug string) (*model.MeasureVersion, error) {
	var mv model.MeasureVersion
	err := g.db.WithContext(ctx).
		Where("page_type = ? AND slug = ?", model.PageTypeSubtopic, subtopicSlug).
		First(&mv).Error
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

func (g *GormStore) CreateSubtopicPage(ctx context.Context, mv *model.MeasureVersion) error {
	mv.PageType = model.PageTypeSubtopic
	return g.db.WithContext(ctx).Create(mv).Error
}

// ListLatestVersionsOfAllMeasures selects, per measure, the row holding the
// maximum version number via a group-by-max join rather than a per-row scan.
// MAX compares the version strings lexically, so a two-digit minor ("1.10")
// sorts below "1.9"; no lineage has reached that many minors.
func (g *GormStore) ListLatestVersionsOfAllMeasures(ctx context.Context, includeDrafts bool) ([]*model.MeasureVersion, error) {
	sub := g.db.
		Model(&model.MeasureVersion{}).
		Select("measure_id, MAX(version) AS max_version").
		Where("published = ? AND page_type = ?", !includeDrafts, model.PageTypeMeasure).
		Group("measure_id")

	var versions []*model.MeasureVersion
	err := g.db.WithContext(ctx).
		Model(&model.MeasureVersion{}).
		Joins("JOIN (?) mmv ON mmv.measure_id = measure_versions.measure_id AND mmv.max_version = measure_versions.version", sub).
		Order("measure_versions.title ASC").
		Find(&versions).Error
	return versions, err
}

func (g *GormStore) ListVersionsDueForPublication(ctx context.Context) ([]*model.MeasureVersion, error) {
	var versions []*model.MeasureVersion
	err := g.db.WithContext(ctx).
		Where("status = ? AND (publication_date IS NULL OR publication_date <= ?)",
			model.StatusApproved, time.Now()).
		Find(&versions).Error
	return versions, err
}

func (g *GormStore) GetDimension(ctx context.Context, guid string) (*model.Dimension, error) {
	var dimension model.Dimension
	err := g.db.WithContext(ctx).
		Preload("Categorisations.Categorisation").
		Where("guid = ?", guid).
		First(&dimension).Error
	if err != nil {
		return nil, err
	}
	return &dimension, nil
}

func (g *GormStore) CreateDimension(ctx context.Context, dimension *model.Dimension) error {
	return g.db.WithContext(ctx).Create(dimension).Error
}

func (g *GormStore) UpdateDimension(ctx context.Context, dimension *model.Dimension) error {
	return g.db.WithContext(ctx).Save(dimension).Error
}

func (g *GormStore) DeleteDimension(ctx context.Context, guid string) error {
	return g.db.WithContext(ctx).Where("guid = ?", guid).Delete(&model.Dimension{}).Error
}

func (g *GormStore) GetUpload(ctx context.Context, guid string) (*model.Upload, error) {
	var upload model.Upload
	err := g.db.WithContext(ctx).Where("guid = ?", guid).First(&upload).Error
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (g *GormStore) CreateUpload(ctx context.Context, upload *model.Upload) error {
	return g.db.WithContext(ctx).Create(upload).Error
}

func (g *GormStore) DeleteUpload(ctx context.Context, guid string) error {
	return g.db.WithContext(ctx).Where("guid = ?", guid).Delete(&model.Upload{}).Error
}

func (g *GormStore) ListDataSources(ctx context.Context, measureVersionID uint) ([]*model.DataSource, error) {
	var sources []*model.DataSource
	err := g.db.WithContext(ctx).
		Where("measure_version_id = ?", measureVersionID).
		Order("position ASC").
		Find(&sources).Error
	return sources, err
}

func (g *GormStore) SaveDataSource(ctx context.Context, ds *model.DataSource) error {
	return g.db.WithContext(ctx).Save(ds).Error
}

func (g *GormStore) DeleteDataSource(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Delete(&model.DataSource{}, id).Error
}

func (g *GormStore) ListTypesOfStatistic(ctx context.Context) ([]*model.TypeOfStatistic, error) {
	var choices []*model.TypeOfStatistic
	err := g.db.WithContext(ctx).Order("position ASC").Find(&choices).Error
	return choices, err
}

func (g *GormStore) ListFrequenciesOfRelease(ctx context.Context) ([]*model.FrequencyOfRelease, error) {
	var choices []*model.FrequencyOfRelease
	err := g.db.WithContext(ctx).Order("position ASC").Find(&choices).Error
	return choices, err
}

func (g *GormStore) ListLowestLevelsOfGeography(ctx context.Context) ([]*model.LowestLevelOfGeography, error) {
	var choices []*model.LowestLevelOfGeography
	err := g.db.WithContext(ctx).Order("position ASC").Find(&choices).Error
	return choices, err
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
