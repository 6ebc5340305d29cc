package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rdu/measures/internal/forms"
	"github.com/rdu/measures/internal/model"
	"github.com/rdu/measures/internal/store"
	"github.com/rdu/measures/internal/uploads"
	"github.com/sirupsen/logrus"
)

// maxSlugCopyAttempts bounds the "-copy" suffix search when duplicating a
// measure, so a pathological slug space cannot loop forever.
const maxSlugCopyAttempts = 50

// NewPageService creates the versioning/workflow service. It is the sole
// authority for creating measures and measure versions and for keeping the
// latest-flag and version-numbering invariants. The signing key backs the
// review share links.
func NewPageService(store store.Store, files *uploads.Service, signingKey []byte) *PageService {
	return &PageService{
		store:      store,
		files:      files,
		signingKey: signingKey,
		log:        logrus.WithField("service", "pages"),
	}
}

type PageService struct {
	store      store.Store
	files      *uploads.Service
	signingKey []byte
	log        *logrus.Entry
}

// CreateMeasure creates a measure under a subtopic together with its 1.0
// draft version and any submitted data sources. The measure slug is derived
// from the title and must be unique within the subtopic. The whole operation
// commits atomically.
func (s *PageService) CreateMeasure(
	ctx context.Context,
	subtopic *model.Subtopic,
	pageForm *forms.MeasurePageForm,
	dataSourceForms []*forms.DataSourceForm,
	createdBy string,
) (*model.MeasureVersion, error) {
	title := strings.TrimSpace(pageForm.Title.Data)
	slug := Slugify(title)
	guid := uuid.New().String()

	var created *model.MeasureVersion

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		exists, err := tx.MeasureSlugExists(ctx, subtopic.ID, slug)
		if err != nil {
			return err
		}
		if exists {
			return &PageExistsError{Title: title, Subtopic: subtopic.Title}
		}

		position, err := tx.CountMeasures(ctx, subtopic.ID)
		if err != nil {
			return err
		}

		measure := &model.Measure{
			Slug:      slug,
			Position:  int(position),
			Reference: pageForm.InternalReference.Data,
			Subtopics: []*model.Subtopic{subtopic},
		}
		if err := tx.CreateMeasure(ctx, measure); err != nil {
			return err
		}

		// Measure versions are parented to the subtopic's synthetic page
		// row so the display tree resolves.
		subtopicPage, err := tx.GetSubtopicPage(ctx, subtopic.Slug)
		if err != nil {
			return fmt.Errorf("no subtopic page for %q: %w", subtopic.Slug, err)
		}

		mv := &model.MeasureVersion{
			GUID:          guid,
			Version:       "1.0",
			Slug:          slug,
			Title:         title,
			PageType:      model.PageTypeMeasure,
			MeasureID:     measure.ID,
			Status:        model.StatusDraft,
			Latest:        true,
			CreatedBy:     createdBy,
			Position:      int(position),
			ParentID:      &subtopicPage.ID,
			ParentGUID:    &subtopicPage.GUID,
			ParentVersion: &subtopicPage.Version,
		}
		pageForm.Populate(mv)
		mv.Title = title

		if err := s.setDataSources(ctx, tx, mv, dataSourceForms); err != nil {
			return err
		}

		if err := tx.CreateMeasureVersion(ctx, mv); err != nil {
			return err
		}

		// The guid is fresh so this is normally a no-op; the code path is
		// shared with version creation, where a prior latest can exist.
		if err := tx.ClearLatest(ctx, mv.GUID, mv.ID); err != nil {
			return err
		}

		created = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"slug": slug, "guid": guid}).Info("created measure")
	return created, nil
}

// CreateNewMeasureVersion forks a new version of an existing measure.
// MINOR and MAJOR updates extend the same lineage; NEW_MEASURE duplicates
// the measure into an independent lineage starting at 1.0. Dimensions and
// data sources are deep-copied, uploads are re-keyed and their backing
// files duplicated before the transaction commits. The latest flag moves to
// the new version under a lineage row lock.
func (s *PageService) CreateNewMeasureVersion(
	ctx context.Context,
	measureVersionID uint,
	versionType model.NewVersionType,
	createdBy string,
) (*model.MeasureVersion, error) {
	var created *model.MeasureVersion

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		source, err := tx.GetMeasureVersionByID(ctx, measureVersionID)
		if err != nil {
			return err
		}

		nextNumber, err := model.NextVersionNumber(source.Version, versionType)
		if err != nil {
			return err
		}

		newVersion := source.Copy()
		newVersion.GUID = source.GUID

		if versionType == model.VersionTypeNewMeasure {
			if err := s.forkMeasure(ctx, tx, source, newVersion); err != nil {
				return err
			}
		} else {
			// Lock the lineage so concurrent version creation serializes:
			// the duplicate-slot check and the latest flip happen under the
			// same lock.
			if _, err := tx.LockLineage(ctx, source.GUID); err != nil {
				return err
			}

			occupied, err := tx.GetVersionByMeasureAndNumber(ctx, source.MeasureID, nextNumber)
			if err != nil {
				return err
			}
			if occupied != nil {
				return ErrUpdateAlreadyExists
			}
		}

		newVersion.Version = nextNumber
		newVersion.Status = model.StatusDraft
		newVersion.CreatedBy = createdBy
		newVersion.UpdatedBy = ""
		newVersion.Published = false
		newVersion.PublishedAt = nil
		newVersion.InternalEditSummary = ""
		newVersion.ExternalEditSummary = ""
		newVersion.Latest = true

		for _, dimension := range source.Dimensions {
			newVersion.Dimensions = append(newVersion.Dimensions, dimension.Copy())
		}
		for _, ds := range source.DataSources {
			newVersion.DataSources = append(newVersion.DataSources, ds.Copy())
		}
		for _, upload := range source.Uploads {
			clone := upload.Copy()
			clone.GUID = uploads.CreateGUID(upload.FileName)
			newVersion.Uploads = append(newVersion.Uploads, clone)
		}

		if err := tx.CreateMeasureVersion(ctx, newVersion); err != nil {
			return err
		}

		if err := tx.ClearLatest(ctx, newVersion.GUID, newVersion.ID); err != nil {
			return err
		}

		// Duplicate the backing files before commit; a failed copy aborts
		// the transaction rather than leaving a half-copied latest version.
		if len(newVersion.Uploads) > 0 {
			if err := s.files.CopyBetweenMeasureVersions(ctx, source, newVersion); err != nil {
				return err
			}
		}

		created = newVersion
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"guid":    created.GUID,
		"version": created.Version,
		"type":    versionType,
	}).Info("created measure version")
	return created, nil
}

// forkMeasure prepares a NEW_MEASURE copy: fresh lineage guid, duplicated
// measure row under a disambiguated slug, copy-marked title, same subtopics.
func (s *PageService) forkMeasure(ctx context.Context, tx store.Store, source, newVersion *model.MeasureVersion) error {
	if source.Measure == nil || source.Measure.Subtopic() == nil {
		return fmt.Errorf("measure version %d has no subtopic", source.ID)
	}
	subtopic := source.Measure.Subtopic()

	newVersion.GUID = uuid.New().String()
	newVersion.Title = "COPY OF " + source.Title

	slug, err := s.copySlug(ctx, tx, subtopic.ID, source.Slug)
	if err != nil {
		return err
	}
	newVersion.Slug = slug

	position, err := tx.CountMeasures(ctx, subtopic.ID)
	if err != nil {
		return err
	}

	measure := &model.Measure{
		Slug:      slug,
		Position:  int(position),
		Reference: source.InternalReference,
		Subtopics: source.Measure.Subtopics,
	}
	if err := tx.CreateMeasure(ctx, measure); err != nil {
		return err
	}

	newVersion.MeasureID = measure.ID
	newVersion.Measure = nil
	return nil
}

// copySlug finds a free "-copy" slug for a duplicated measure, switching to
// numbered suffixes rather than stacking "-copy" without bound.
func (s *PageService) copySlug(ctx context.Context, tx store.Store, subtopicID uint, base string) (string, error) {
	slug := base + "-copy"
	for i := 2; ; i++ {
		exists, err := tx.MeasureSlugExists(ctx, subtopicID, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		if i > maxSlugCopyAttempts {
			return "", fmt.Errorf("no free copy slug for %q after %d attempts", base, maxSlugCopyAttempts)
		}
		slug = fmt.Sprintf("%s-copy-%d", base, i)
	}
}

// UpdateMeasureVersion applies a validated page form and its data-source
// sub-forms to a draft version. A rejected version returns to draft on
// update.
func (s *PageService) UpdateMeasureVersion(
	ctx context.Context,
	measureVersionID uint,
	pageForm *forms.MeasurePageForm,
	dataSourceForms []*forms.DataSourceForm,
	updatedBy string,
) (*model.MeasureVersion, error) {
	var updated *model.MeasureVersion

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		mv, err := tx.GetMeasureVersionByID(ctx, measureVersionID)
		if err != nil {
			return err
		}

		if mv.Status == model.StatusPublished || mv.Status == model.StatusApproved {
			return ErrInvalidStateTransition
		}
		if mv.Status == model.StatusRejected {
			mv.Status = model.StatusDraft
		}

		pageForm.Populate(mv)
		if title := strings.TrimSpace(pageForm.Title.Data); title != "" {
			mv.Title = title
		}
		mv.UpdatedBy = updatedBy

		if err := s.setDataSources(ctx, tx, mv, dataSourceForms); err != nil {
			return err
		}

		if err := tx.UpdateMeasureVersion(ctx, mv); err != nil {
			return err
		}

		updated = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// setDataSources applies the wholesale data-source replacement: forms line
// up with existing rows by position index; a remove flag or an all-blank
// form drops the row at that index; anything with content updates in place
// or inserts; surplus existing rows are deleted.
func (s *PageService) setDataSources(
	ctx context.Context,
	tx store.Store,
	mv *model.MeasureVersion,
	dataSourceForms []*forms.DataSourceForm,
) error {
	current := mv.DataSources
	kept := make([]*model.DataSource, 0, len(dataSourceForms))

	for i, form := range dataSourceForms {
		var existing *model.DataSource
		if i < len(current) {
			existing = current[i]
		}

		if form.RemoveDataSource.Data || form.IsBlank() {
			if existing != nil && existing.ID != 0 {
				if err := tx.DeleteDataSource(ctx, existing.ID); err != nil {
					return err
				}
			}
			continue
		}

		ds := existing
		if ds == nil {
			ds = &model.DataSource{}
		}
		form.Populate(ds)

		if existing != nil || ds.HasContent() {
			ds.Position = len(kept)
			kept = append(kept, ds)

			// On create the version row does not exist yet and the child
			// rows ride along with it; on update they are saved here.
			if mv.ID != 0 {
				ds.MeasureVersionID = mv.ID
				if err := tx.SaveDataSource(ctx, ds); err != nil {
					return err
				}
			}
		}
	}

	for i := len(dataSourceForms); i < len(current); i++ {
		if current[i].ID != 0 {
			if err := tx.DeleteDataSource(ctx, current[i].ID); err != nil {
				return err
			}
		}
	}

	mv.DataSources = kept
	return nil
}

// CreateDimension attaches a dimension to a measure version.
func (s *PageService) CreateDimension(ctx context.Context, mv *model.MeasureVersion, form *forms.DimensionForm) (*model.Dimension, error) {
	dimension := &model.Dimension{
		GUID:             uuid.New().String(),
		MeasureVersionID: mv.ID,
		Position:         len(mv.Dimensions),
	}
	form.Populate(dimension)

	if err := s.store.CreateDimension(ctx, dimension); err != nil {
		return nil, err
	}
	return dimension, nil
}

// UpdateDimension applies a validated dimension form.
func (s *PageService) UpdateDimension(ctx context.Context, guid string, form *forms.DimensionForm) (*model.Dimension, error) {
	dimension, err := s.store.GetDimension(ctx, guid)
	if err != nil {
		return nil, ErrDimensionNotFound
	}

	form.Populate(dimension)
	if err := s.store.UpdateDimension(ctx, dimension); err != nil {
		return nil, err
	}
	return dimension, nil
}

// DeleteDimension removes a dimension.
func (s *PageService) DeleteDimension(ctx context.Context, guid string) error {
	if _, err := s.store.GetDimension(ctx, guid); err != nil {
		return ErrDimensionNotFound
	}
	return s.store.DeleteDimension(ctx, guid)
}

// CreateUpload stores a source file and attaches it to a measure version.
func (s *PageService) CreateUpload(ctx context.Context, mv *model.MeasureVersion, form *forms.UploadForm, content []byte) (*model.Upload, error) {
	upload := &model.Upload{
		GUID:             uploads.CreateGUID(form.FileName.Data),
		MeasureVersionID: mv.ID,
		Size:             int64(len(content)),
	}
	form.Populate(upload)

	if err := s.files.Save(ctx, upload, bytes.NewReader(content), upload.Size); err != nil {
		return nil, err
	}
	if err := s.store.CreateUpload(ctx, upload); err != nil {
		return nil, err
	}
	return upload, nil
}

// DeleteUpload removes an upload row and its backing file.
func (s *PageService) DeleteUpload(ctx context.Context, guid string) error {
	upload, err := s.store.GetUpload(ctx, guid)
	if err != nil {
		return ErrUploadNotFound
	}

	if err := s.store.DeleteUpload(ctx, guid); err != nil {
		return err
	}
	return s.files.Delete(ctx, upload)
}
