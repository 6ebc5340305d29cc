package store

import (
	"context"

	"github.com/rdu/measures/internal/model"
)

type Store interface {
	TopicStore
	MeasureStore
	MeasureVersionStore
	DimensionStore
	UploadStore
	DataSourceStore
	ReferenceStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type TopicStore interface {
	// CreateTopic creates a new topic.
	CreateTopic(ctx context.Context, topic *model.Topic) error
	// GetTopicBySlug retrieves a topic with its subtopics ordered by position.
	GetTopicBySlug(ctx context.Context, slug string) (*model.Topic, error)
	// ListTopics retrieves all topics.
	ListTopics(ctx context.Context) ([]*model.Topic, error)
	// CreateSubtopic creates a new subtopic.
	CreateSubtopic(ctx context.Context, subtopic *model.Subtopic) error
	// GetSubtopic retrieves a subtopic scoped to the given topic slug.
	GetSubtopic(ctx context.Context, topicSlug, subtopicSlug string) (*model.Subtopic, error)
}

type MeasureStore interface {
	// CreateMeasure creates a measure together with its subtopic associations.
	CreateMeasure(ctx context.Context, measure *model.Measure) error
	// GetMeasure retrieves a measure by its full slug path.
	GetMeasure(ctx context.Context, topicSlug, subtopicSlug, measureSlug string) (*model.Measure, error)
	// MeasureSlugExists reports whether a measure with the slug exists under the subtopic.
	MeasureSlugExists(ctx context.Context, subtopicID uint, slug string) (bool, error)
	// CountMeasures counts the measures attached to a subtopic.
	CountMeasures(ctx context.Context, subtopicID uint) (int64, error)
}

type MeasureVersionStore interface {
	// CreateMeasureVersion creates a version together with its owned child rows.
	CreateMeasureVersion(ctx context.Context, mv *model.MeasureVersion) error
	// UpdateMeasureVersion saves changes to a version.
	UpdateMeasureVersion(ctx context.Context, mv *model.MeasureVersion) error
	// GetMeasureVersionByID retrieves a version with its child rows preloaded.
	GetMeasureVersionByID(ctx context.Context, id uint) (*model.MeasureVersion, error)
	// GetVersionByMeasureAndNumber retrieves the version occupying a number slot, or nil.
	GetVersionByMeasureAndNumber(ctx context.Context, measureID uint, version string) (*model.MeasureVersion, error)
	// ListVersionsBySlugAndVersion retrieves all versions matching slug and
	// number, with the measure/subtopic/topic path preloaded for
	// disambiguation.
	ListVersionsBySlugAndVersion(ctx context.Context, measureSlug, version string) ([]*model.MeasureVersion, error)
	// ListLineage retrieves every version sharing a guid.
	ListLineage(ctx context.Context, guid string) ([]*model.MeasureVersion, error)
	// LockLineage retrieves a lineage holding row locks until the enclosing
	// transaction ends.
	LockLineage(ctx context.Context, guid string) ([]*model.MeasureVersion, error)
	// ClearLatest clears the latest flag on all versions of a lineage except one.
	ClearLatest(ctx context.Context, guid string, exceptID uint) error
	// GetSubtopicPage retrieves the synthetic page row mirroring a subtopic.
	GetSubtopicPage(ctx context.Context, subtopicSlug string) (*model.MeasureVersion, error)
	// CreateSubtopicPage creates the synthetic page row for a subtopic.
	CreateSubtopicPage(ctx context.Context, mv *model.MeasureVersion) error
	// ListLatestVersionsOfAllMeasures retrieves, per measure, the single
	// version with the maximum version number, ordered by title.
	ListLatestVersionsOfAllMeasures(ctx context.Context, includeDrafts bool) ([]*model.MeasureVersion, error)
	// ListVersionsDueForPublication retrieves approved versions whose
	// publication date has passed.
	ListVersionsDueForPublication(ctx context.Context) ([]*model.MeasureVersion, error)
}

type DimensionStore interface {
	// GetDimension retrieves a dimension by guid.
	GetDimension(ctx context.Context, guid string) (*model.Dimension, error)
	// CreateDimension creates a dimension.
	CreateDimension(ctx context.Context, dimension *model.Dimension) error
	// UpdateDimension saves changes to a dimension.
	UpdateDimension(ctx context.Context, dimension *model.Dimension) error
	// DeleteDimension deletes a dimension by guid.
	DeleteDimension(ctx context.Context, guid string) error
}

type UploadStore interface {
	// GetUpload retrieves an upload by guid.
	GetUpload(ctx context.Context, guid string) (*model.Upload, error)
	// CreateUpload creates an upload.
	CreateUpload(ctx context.Context, upload *model.Upload) error
	// DeleteUpload deletes an upload by guid.
	DeleteUpload(ctx context.Context, guid string) error
}

type DataSourceStore interface {
	// ListDataSources retrieves a version's data sources ordered by position.
	ListDataSources(ctx context.Context, measureVersionID uint) ([]*model.DataSource, error)
	// SaveDataSource creates or updates a data source.
	SaveDataSource(ctx context.Context, ds *model.DataSource) error
	// DeleteDataSource deletes a data source.
	DeleteDataSource(ctx context.Context, id uint) error
}

type ReferenceStore interface {
	// ListTypesOfStatistic retrieves the type-of-statistic choices by position.
	ListTypesOfStatistic(ctx context.Context) ([]*model.TypeOfStatistic, error)
	// ListFrequenciesOfRelease retrieves the publication frequency choices by position.
	ListFrequenciesOfRelease(ctx context.Context) ([]*model.FrequencyOfRelease, error)
	// ListLowestLevelsOfGeography retrieves the geography choices by position.
	ListLowestLevelsOfGeography(ctx context.Context) ([]*model.LowestLevelOfGeography, error)
}
