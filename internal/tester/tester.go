package tester

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rdu/measures/internal/model"
	"github.com/rdu/measures/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testPath = "../../.test/"
)

var (
	db *gorm.DB
)

// Setup creates a fresh sqlite database for a test run.
func Setup() {
	RemoveDBFile()

	_ = os.Setenv("ENV", "test")

	err := os.MkdirAll(testPath+"/db", os.ModePerm)
	if err != nil {
		panic(err)
	}

	db, err = gorm.Open(sqlite.Open(testPath+"db/measures.db"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

func RemoveDBFile() {
	err := os.RemoveAll(testPath)
	if err != nil {
		panic(err)
	}
}

// SeedTopic creates a topic with one subtopic and its synthetic subtopic
// page, the minimum fixture for measure creation.
func SeedTopic(s store.Store, topicSlug, subtopicSlug string) *model.Subtopic {
	ctx := context.Background()

	topic := &model.Topic{
		Slug:  topicSlug,
		Title: topicSlug,
	}
	if err := s.CreateTopic(ctx, topic); err != nil {
		panic(err)
	}

	subtopic := &model.Subtopic{
		TopicID: topic.ID,
		Slug:    subtopicSlug,
		Title:   subtopicSlug,
	}
	if err := s.CreateSubtopic(ctx, subtopic); err != nil {
		panic(err)
	}
	subtopic.Topic = topic

	page := &model.MeasureVersion{
		GUID:    uuid.New().String(),
		Version: "1.0",
		Slug:    subtopicSlug,
		Title:   subtopicSlug,
		Status:  model.StatusDraft,
	}
	if err := s.CreateSubtopicPage(ctx, page); err != nil {
		panic(err)
	}

	return subtopic
}

// SeedReferenceData inserts a minimal set of reference rows for forms.
func SeedReferenceData(db *gorm.DB) {
	statistics := []*model.TypeOfStatistic{
		{Internal: "National", External: "National Statistics", Position: 1},
		{Internal: "Official", External: "Official statistics", Position: 2},
	}
	for _, s := range statistics {
		if err := db.Create(s).Error; err != nil {
			panic(err)
		}
	}

	frequencies := []*model.FrequencyOfRelease{
		{Description: "Monthly", Position: 1},
		{Description: "Quarterly", Position: 2},
		{Description: "Other", Position: 3},
	}
	for _, f := range frequencies {
		if err := db.Create(f).Error; err != nil {
			panic(err)
		}
	}

	geographies := []*model.LowestLevelOfGeography{
		{Name: "UK", Position: 1},
		{Name: "Country", Position: 2},
		{Name: "Local authority upper", Position: 3},
	}
	for _, g := range geographies {
		if err := db.Create(g).Error; err != nil {
			panic(err)
		}
	}
}
