package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Masterminds/semver"
	"github.com/rdu/measures/internal/model"
	"github.com/rdu/measures/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// testingSpaceSlug marks the sandbox topic that editors use for trials. It is
// hidden from topic listings but still reachable by direct slug.
const testingSpaceSlug = "testing-space"

// NewLookupService creates the read-side query service.
func NewLookupService(store store.Store) *LookupService {
	return &LookupService{
		store: store,
		log:   logrus.WithField("service", "lookup"),
	}
}

type LookupService struct {
	store store.Store
	log   *logrus.Entry
}

// GetTopic retrieves a topic by slug.
func (s *LookupService) GetTopic(ctx context.Context, slug string) (*model.Topic, error) {
	topic, err := s.store.GetTopicBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPageNotFound
	}
	return topic, err
}

// GetAllTopics lists every real topic sorted by title. The testing sandbox is
// excluded.
func (s *LookupService) GetAllTopics(ctx context.Context) ([]*model.Topic, error) {
	topics, err := s.store.ListTopics(ctx)
	if err != nil {
		return nil, err
	}

	filtered := topics[:0]
	for _, t := range topics {
		if t.Slug == testingSpaceSlug {
			continue
		}
		filtered = append(filtered, t)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Title < filtered[j].Title
	})
	return filtered, nil
}

// GetSubtopic retrieves a subtopic scoped to its topic.
func (s *LookupService) GetSubtopic(ctx context.Context, topicSlug, subtopicSlug string) (*model.Subtopic, error) {
	subtopic, err := s.store.GetSubtopic(ctx, topicSlug, subtopicSlug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPageNotFound
	}
	return subtopic, err
}

// GetMeasure retrieves a measure by its full slug path.
func (s *LookupService) GetMeasure(ctx context.Context, topicSlug, subtopicSlug, measureSlug string) (*model.Measure, error) {
	measure, err := s.store.GetMeasure(ctx, topicSlug, subtopicSlug, measureSlug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPageNotFound
	}
	return measure, err
}

// GetMeasureVersion resolves a measure version from its public path. Slugs
// are only unique within a subtopic, so candidates matching slug and version
// number are disambiguated against the topic and subtopic path.
func (s *LookupService) GetMeasureVersion(ctx context.Context, topicSlug, subtopicSlug, measureSlug, version string) (*model.MeasureVersion, error) {
	candidates, err := s.store.ListVersionsBySlugAndVersion(ctx, measureSlug, version)
	if err != nil {
		return nil, err
	}

	for _, mv := range candidates {
		if versionMatchesPath(mv, topicSlug, subtopicSlug) {
			return mv, nil
		}
	}
	return nil, ErrPageNotFound
}

// GetMeasureVersionByID retrieves a version by primary key with its children
// preloaded.
func (s *LookupService) GetMeasureVersionByID(ctx context.Context, id uint) (*model.MeasureVersion, error) {
	mv, err := s.store.GetMeasureVersionByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPageNotFound
	}
	return mv, err
}

func versionMatchesPath(mv *model.MeasureVersion, topicSlug, subtopicSlug string) bool {
	if mv.Measure == nil {
		return false
	}
	for _, st := range mv.Measure.Subtopics {
		if st.Slug != subtopicSlug {
			continue
		}
		if st.Topic != nil && st.Topic.Slug == topicSlug {
			return true
		}
	}
	return false
}

// MeasurePageHierarchy is the resolved ancestry of a measure version, used
// by handlers that need the whole path consistent.
type MeasurePageHierarchy struct {
	Topic          *model.Topic
	Subtopic       *model.Subtopic
	Measure        *model.Measure
	MeasureVersion *model.MeasureVersion
	Dimension      *model.Dimension
	Upload         *model.Upload
}

// GetMeasurePageHierarchy resolves the full path down to a version and
// verifies each level belongs to its parent. Every failed level collapses
// into the single ErrInvalidPageHierarchy; the specific kind is logged, not
// returned. dimensionGUID and uploadGUID are optional; when given, the child
// must belong to the resolved version.
func (s *LookupService) GetMeasurePageHierarchy(ctx context.Context, topicSlug, subtopicSlug, measureSlug, version, dimensionGUID, uploadGUID string) (*MeasurePageHierarchy, error) {
	topic, err := s.GetTopic(ctx, topicSlug)
	if err != nil {
		return nil, s.hierarchyFailure("topic", err)
	}

	subtopic, err := s.GetSubtopic(ctx, topicSlug, subtopicSlug)
	if err != nil {
		return nil, s.hierarchyFailure("subtopic", err)
	}
	if subtopic.TopicID != topic.ID {
		return nil, s.hierarchyFailure("subtopic", ErrInvalidPageHierarchy)
	}

	measure, err := s.GetMeasure(ctx, topicSlug, subtopicSlug, measureSlug)
	if err != nil {
		return nil, s.hierarchyFailure("measure", err)
	}

	mv, err := s.GetMeasureVersion(ctx, topicSlug, subtopicSlug, measureSlug, version)
	if err != nil {
		return nil, s.hierarchyFailure("measure version", err)
	}
	if mv.MeasureID != measure.ID {
		return nil, s.hierarchyFailure("measure version", ErrInvalidPageHierarchy)
	}

	hierarchy := &MeasurePageHierarchy{
		Topic:          topic,
		Subtopic:       subtopic,
		Measure:        measure,
		MeasureVersion: mv,
	}

	if dimensionGUID != "" {
		if hierarchy.Dimension = mv.GetDimension(dimensionGUID); hierarchy.Dimension == nil {
			return nil, s.hierarchyFailure("dimension", ErrDimensionNotFound)
		}
	}
	if uploadGUID != "" {
		if hierarchy.Upload = mv.GetUpload(uploadGUID); hierarchy.Upload == nil {
			return nil, s.hierarchyFailure("upload", ErrUploadNotFound)
		}
	}

	return hierarchy, nil
}

// hierarchyFailure logs which level of the path failed and returns the
// uniform hierarchy error.
func (s *LookupService) hierarchyFailure(level string, err error) error {
	s.log.WithError(err).WithField("level", level).Debug("measure page hierarchy lookup failed")
	return ErrInvalidPageHierarchy
}

// GetPreviousMajorVersions lists the final release of each earlier major in
// the same lineage, newest first. A major that was itself corrected by a
// minor update is superseded and left out; for lineage 1.0, 1.1, 1.2, 2.0
// the previous majors of 2.0 are just 1.2.
func (s *LookupService) GetPreviousMajorVersions(ctx context.Context, mv *model.MeasureVersion) ([]*model.MeasureVersion, error) {
	lineage, err := s.store.ListLineage(ctx, mv.GUID)
	if err != nil {
		return nil, err
	}

	var previous []*model.MeasureVersion
	for _, v := range lineage {
		if v.Major() < mv.Major() && !hasMinorUpdate(lineage, v) {
			previous = append(previous, v)
		}
	}
	sortVersionsNewestFirst(previous)
	return previous, nil
}

// hasMinorUpdate reports whether the lineage records a later minor release
// of v's major version.
func hasMinorUpdate(lineage []*model.MeasureVersion, v *model.MeasureVersion) bool {
	for _, w := range lineage {
		if w.Major() == v.Major() && w.Minor() > v.Minor() {
			return true
		}
	}
	return false
}

// GetPreviousMinorVersions lists the earlier minor releases of the same
// major version, newest first.
func (s *LookupService) GetPreviousMinorVersions(ctx context.Context, mv *model.MeasureVersion) ([]*model.MeasureVersion, error) {
	lineage, err := s.store.ListLineage(ctx, mv.GUID)
	if err != nil {
		return nil, err
	}

	var previous []*model.MeasureVersion
	for _, v := range lineage {
		if v.Major() == mv.Major() && v.Minor() < mv.Minor() {
			previous = append(previous, v)
		}
	}
	sortVersionsNewestFirst(previous)
	return previous, nil
}

// GetFirstPublishedDate returns when the current major release first went
// live: the publication instant of its oldest previous minor, or the
// version's own when it opened the major.
func (s *LookupService) GetFirstPublishedDate(ctx context.Context, mv *model.MeasureVersion) (*time.Time, error) {
	previous, err := s.GetPreviousMinorVersions(ctx, mv)
	if err != nil {
		return nil, err
	}
	if len(previous) == 0 {
		return mv.PublishedAt, nil
	}
	return previous[len(previous)-1].PublishedAt, nil
}

// GetLatestVersionOfAllMeasures lists the newest version per measure,
// ordered by title. With includeDrafts the unpublished work-in-progress rows
// are surveyed instead of the published ones.
func (s *LookupService) GetLatestVersionOfAllMeasures(ctx context.Context, includeDrafts bool) ([]*model.MeasureVersion, error) {
	return s.store.ListLatestVersionsOfAllMeasures(ctx, includeDrafts)
}

// sortVersionsNewestFirst orders versions by their number descending.
// "major.minor" parses as a two-segment semver, which sorts numerically
// where a string sort would put 1.10 before 1.2.
func sortVersionsNewestFirst(versions []*model.MeasureVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		vi, erri := semver.NewVersion(versions[i].Version)
		vj, errj := semver.NewVersion(versions[j].Version)
		if erri != nil || errj != nil {
			return versions[i].Version > versions[j].Version
		}
		return vi.GreaterThan(vj)
	})
}
