package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rdu/measures/internal/cache"
	"github.com/rdu/measures/internal/forms"
	"github.com/rdu/measures/internal/model"
	"github.com/rdu/measures/internal/service"
	"github.com/rdu/measures/internal/store"
	"github.com/rdu/measures/internal/uploads"
	"github.com/sirupsen/logrus"
)

// dataSourcePrefixes are the form-field prefixes of the primary and
// secondary data source sub-forms of a measure page submission.
var dataSourcePrefixes = []string{"data_source_1__", "data_source_2__"}

type handler struct {
	store    store.Store
	pages    *service.PageService
	lookup   *service.LookupService
	files    *uploads.Service
	listings cache.MeasureCache
	log      *logrus.Entry
}

// writeError maps service errors onto HTTP statuses.
func (h *handler) writeError(c *gin.Context, err error) {
	var pageExists *service.PageExistsError
	switch {
	case errors.Is(err, service.ErrPageNotFound),
		errors.Is(err, service.ErrDimensionNotFound),
		errors.Is(err, service.ErrUploadNotFound),
		errors.Is(err, service.ErrInvalidPageHierarchy):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &pageExists),
		errors.Is(err, service.ErrUpdateAlreadyExists),
		errors.Is(err, service.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *handler) writeFormErrors(c *gin.Context, errs map[string][]string) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
}

// formValues parses the submission, merging query and body values the way
// the form layer expects.
func formValues(c *gin.Context) url.Values {
	_ = c.Request.ParseMultipartForm(32 << 20)
	if c.Request.Form == nil {
		_ = c.Request.ParseForm()
	}
	return c.Request.Form
}

// subValues extracts the fields of a prefixed sub-form, stripping the
// prefix.
func subValues(values url.Values, prefix string) url.Values {
	sub := url.Values{}
	for k, v := range values {
		if strings.HasPrefix(k, prefix) {
			sub[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return sub
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// userEmail identifies the acting editor. Authentication sits in front of
// this service; the gateway forwards the identity.
func userEmail(c *gin.Context) string {
	if email := c.GetHeader("X-User"); email != "" {
		return email
	}
	return "unknown"
}

func sendingToReview(values url.Values) bool {
	return values.Get("sending_to_review") == "true"
}

func (h *handler) listTopics(c *gin.Context) {
	topics, err := h.lookup.GetAllTopics(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (h *handler) getTopic(c *gin.Context) {
	topic, err := h.lookup.GetTopic(c.Request.Context(), c.Param("topic"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topic": topic})
}

func (h *handler) getSubtopic(c *gin.Context) {
	subtopic, err := h.lookup.GetSubtopic(c.Request.Context(), c.Param("topic"), c.Param("subtopic"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtopic": subtopic})
}

// buildMeasureForms binds and validates the page form and the data source
// sub-forms from one submission.
func (h *handler) buildMeasureForms(c *gin.Context, values url.Values) (*forms.MeasurePageForm, []*forms.DataSourceForm, bool, error) {
	ctx := c.Request.Context()
	review := sendingToReview(values)

	geographies, err := h.store.ListLowestLevelsOfGeography(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	statistics, err := h.store.ListTypesOfStatistic(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	frequencies, err := h.store.ListFrequenciesOfRelease(ctx)
	if err != nil {
		return nil, nil, false, err
	}

	pageForm := forms.NewMeasurePageForm(review, geographies)
	pageForm.SendingToReview = review
	pageForm.Bind(values)

	var dataSourceForms []*forms.DataSourceForm
	for _, prefix := range dataSourcePrefixes {
		form := forms.NewDataSourceForm(review, statistics, frequencies)
		form.SendingToReview = review
		form.Bind(subValues(values, prefix))
		dataSourceForms = append(dataSourceForms, form)
	}

	ok := pageForm.Validate()
	for _, form := range dataSourceForms {
		if form.IsBlank() || form.RemoveDataSource.Data {
			continue
		}
		if !form.Validate() {
			ok = false
		}
	}

	return pageForm, dataSourceForms, ok, nil
}

func collectFormErrors(pageForm *forms.MeasurePageForm, dataSourceForms []*forms.DataSourceForm) map[string][]string {
	errs := pageForm.Errors()
	for i, form := range dataSourceForms {
		for name, messages := range form.Errors() {
			errs[dataSourcePrefixes[i]+name] = messages
		}
	}
	return errs
}

func (h *handler) createMeasure(c *gin.Context) {
	ctx := c.Request.Context()

	subtopic, err := h.lookup.GetSubtopic(ctx, c.Param("topic"), c.Param("subtopic"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	values := formValues(c)
	pageForm, dataSourceForms, ok, err := h.buildMeasureForms(c, values)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !ok {
		h.writeFormErrors(c, collectFormErrors(pageForm, dataSourceForms))
		return
	}

	mv, err := h.pages.CreateMeasure(ctx, subtopic, pageForm, dataSourceForms, userEmail(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"measure_version": mv})
}

func (h *handler) getMeasureVersion(c *gin.Context) {
	hierarchy, err := h.lookup.GetMeasurePageHierarchy(
		c.Request.Context(),
		c.Param("topic"), c.Param("subtopic"), c.Param("measure"), c.Param("version"),
		c.Query("dimension"), c.Query("upload"),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	body := gin.H{
		"topic":           hierarchy.Topic,
		"subtopic":        hierarchy.Subtopic,
		"measure":         hierarchy.Measure,
		"measure_version": hierarchy.MeasureVersion,
	}
	if hierarchy.Dimension != nil {
		body["dimension"] = hierarchy.Dimension
	}
	if hierarchy.Upload != nil {
		body["upload"] = hierarchy.Upload
	}

	c.JSON(http.StatusOK, body)
}

func (h *handler) listLatestMeasures(c *gin.Context) {
	ctx := c.Request.Context()
	includeDrafts := c.Query("drafts") == "true"

	if cached, err := h.listings.GetLatestMeasures(ctx, includeDrafts); err == nil && cached != nil {
		c.JSON(http.StatusOK, gin.H{"measure_versions": cached})
		return
	}

	versions, err := h.lookup.GetLatestVersionOfAllMeasures(ctx, includeDrafts)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.listings.SetLatestMeasures(ctx, includeDrafts, versions); err != nil {
		h.log.Warnf("failed to cache latest measures: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"measure_versions": versions})
}

func (h *handler) updateMeasureVersion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	values := formValues(c)
	pageForm, dataSourceForms, valid, err := h.buildMeasureForms(c, values)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !valid {
		h.writeFormErrors(c, collectFormErrors(pageForm, dataSourceForms))
		return
	}

	mv, err := h.pages.UpdateMeasureVersion(c.Request.Context(), id, pageForm, dataSourceForms, userEmail(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"measure_version": mv})
}

func (h *handler) createNewVersion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	form := forms.NewNewVersionForm()
	form.Bind(formValues(c))
	if !form.Validate() {
		h.writeFormErrors(c, form.Errors())
		return
	}

	mv, err := h.pages.CreateNewMeasureVersion(
		c.Request.Context(), id, model.NewVersionType(form.VersionType.Data), userEmail(c),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"measure_version": mv})
}

func (h *handler) nextState(c *gin.Context) {
	h.transition(c, h.pages.NextState)
}

func (h *handler) reject(c *gin.Context) {
	h.transition(c, h.pages.Reject)
}

func (h *handler) publish(c *gin.Context) {
	h.transition(c, h.pages.Publish)
}

func (h *handler) unpublish(c *gin.Context) {
	h.transition(c, h.pages.Unpublish)
}

// transition runs one workflow state change and invalidates the listing
// cache when the change affects what is published.
func (h *handler) transition(c *gin.Context, f func(ctx context.Context, id uint, updatedBy string) (*model.MeasureVersion, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	mv, err := f(c.Request.Context(), id, userEmail(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if mv.Status == model.StatusPublished || mv.Status == model.StatusUnpublished {
		if err := h.listings.Invalidate(c.Request.Context()); err != nil {
			h.log.Warnf("failed to invalidate listing cache: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"measure_version": mv})
}

func (h *handler) createDimension(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	mv, err := h.lookup.GetMeasureVersionByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	values := formValues(c)
	form := forms.NewDimensionForm(sendingToReview(values))
	form.SendingToReview = sendingToReview(values)
	form.Bind(values)
	if !form.Validate() {
		h.writeFormErrors(c, form.Errors())
		return
	}

	dimension, err := h.pages.CreateDimension(c.Request.Context(), mv, form)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"dimension": dimension})
}

func (h *handler) updateDimension(c *gin.Context) {
	values := formValues(c)
	form := forms.NewDimensionForm(sendingToReview(values))
	form.SendingToReview = sendingToReview(values)
	form.Bind(values)
	if !form.Validate() {
		h.writeFormErrors(c, form.Errors())
		return
	}

	dimension, err := h.pages.UpdateDimension(c.Request.Context(), c.Param("guid"), form)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dimension": dimension})
}

func (h *handler) deleteDimension(c *gin.Context) {
	if err := h.pages.DeleteDimension(c.Request.Context(), c.Param("guid")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) createUpload(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	mv, err := h.lookup.GetMeasureVersionByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	values := formValues(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	defer file.Close()

	// The form validates the file name the client submitted alongside the
	// multipart part.
	if values.Get("file_name") == "" {
		values.Set("file_name", header.Filename)
	}

	form := forms.NewUploadForm()
	form.Bind(values)
	if !form.Validate() {
		h.writeFormErrors(c, form.Errors())
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.writeError(c, err)
		return
	}

	upload, err := h.pages.CreateUpload(c.Request.Context(), mv, form, content)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"upload": upload})
}

func (h *handler) downloadUpload(c *gin.Context) {
	upload, err := h.store.GetUpload(c.Request.Context(), c.Param("guid"))
	if err != nil {
		h.writeError(c, service.ErrUploadNotFound)
		return
	}

	r, err := h.files.Get(c.Request.Context(), upload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer r.Close()

	c.Header("Content-Disposition", `attachment; filename="`+upload.FileName+`"`)
	c.Header("Content-Type", "text/csv")
	if _, err := io.Copy(c.Writer, r); err != nil {
		h.log.Warnf("failed to stream upload %s: %v", upload.GUID, err)
	}
}

func (h *handler) deleteUpload(c *gin.Context) {
	if err := h.pages.DeleteUpload(c.Request.Context(), c.Param("guid")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getReviewPage resolves a department review share link to the version it
// grants access to, without requiring a signed-in editor.
func (h *handler) getReviewPage(c *gin.Context) {
	guid, version, err := h.pages.VerifyReviewToken(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired review token"})
		return
	}

	lineage, err := h.store.ListLineage(c.Request.Context(), guid)
	if err != nil {
		h.writeError(c, err)
		return
	}

	for _, mv := range lineage {
		if mv.Version == version {
			full, err := h.lookup.GetMeasureVersionByID(c.Request.Context(), mv.ID)
			if err != nil {
				h.writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"measure_version": full})
			return
		}
	}

	h.writeError(c, service.ErrPageNotFound)
}
