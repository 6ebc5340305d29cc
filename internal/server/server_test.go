package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rdu/measures/internal/cache"
	"github.com/rdu/measures/internal/service"
	"github.com/rdu/measures/internal/store"
	"github.com/rdu/measures/internal/tester"
	"github.com/rdu/measures/internal/uploads"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	tester.Setup()
	code := m.Run()

	os.Exit(code)
}

func newTestServer(t *testing.T) (*Server, store.Store) {
	tester.RemoveDBFile()
	tester.Setup()

	st := store.NewGormStore(tester.TestDB())
	tester.SeedReferenceData(tester.TestDB())

	files := uploads.NewService(uploads.NewLocalStore(t.TempDir()))
	pages := service.NewPageService(st, files, []byte("test-signing-key"))
	lookup := service.NewLookupService(st)

	return NewServer(st, pages, lookup, files, cache.NewNoopMeasureCache()), st
}

func postForm(srv *Server, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	w := get(srv, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_CreateAndFetchMeasure(t *testing.T) {
	srv, st := newTestServer(t)
	tester.SeedTopic(st, "health", "outcomes")

	w := postForm(srv, "/topics/health/outcomes/measures", url.Values{
		"title": {"Test Measure"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		MeasureVersion struct {
			ID      uint   `json:"ID"`
			Slug    string `json:"Slug"`
			Version string `json:"Version"`
		} `json:"measure_version"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "test-measure", created.MeasureVersion.Slug)
	assert.Equal(t, "1.0", created.MeasureVersion.Version)

	w = get(srv, "/topics/health/outcomes/test-measure/1.0")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(srv, "/topics/health/outcomes/missing/1.0")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CreateMeasure_ValidationErrors(t *testing.T) {
	srv, st := newTestServer(t)
	tester.SeedTopic(st, "health", "outcomes")

	// No title at all.
	w := postForm(srv, "/topics/health/outcomes/measures", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "title")
}

func TestServer_CreateMeasure_DuplicateConflict(t *testing.T) {
	srv, st := newTestServer(t)
	tester.SeedTopic(st, "health", "outcomes")

	values := url.Values{"title": {"Test Measure"}}
	w := postForm(srv, "/topics/health/outcomes/measures", values)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = postForm(srv, "/topics/health/outcomes/measures", values)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_WorkflowAndReviewLink(t *testing.T) {
	srv, st := newTestServer(t)
	tester.SeedTopic(st, "health", "outcomes")

	w := postForm(srv, "/topics/health/outcomes/measures", url.Values{"title": {"Test Measure"}})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		MeasureVersion struct {
			ID uint `json:"ID"`
		} `json:"measure_version"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := fmt.Sprintf("/measure-versions/%d", created.MeasureVersion.ID)

	// Draft -> internal review -> department review issues a share token.
	w = postForm(srv, base+"/next-state", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = postForm(srv, base+"/next-state", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var reviewed struct {
		MeasureVersion struct {
			Status      string `json:"Status"`
			ReviewToken string `json:"ReviewToken"`
		} `json:"measure_version"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &reviewed))
	assert.Equal(t, "DEPARTMENT_REVIEW", reviewed.MeasureVersion.Status)
	assert.NotEmpty(t, reviewed.MeasureVersion.ReviewToken)

	w = get(srv, "/review/"+reviewed.MeasureVersion.ReviewToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(srv, "/review/garbage")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Rejecting an approved version is not allowed.
	w = postForm(srv, base+"/next-state", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = postForm(srv, base+"/reject", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_NewVersionRequiresType(t *testing.T) {
	srv, st := newTestServer(t)
	tester.SeedTopic(st, "health", "outcomes")

	w := postForm(srv, "/topics/health/outcomes/measures", url.Values{"title": {"Test Measure"}})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		MeasureVersion struct {
			ID uint `json:"ID"`
		} `json:"measure_version"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := fmt.Sprintf("/measure-versions/%d", created.MeasureVersion.ID)

	w = postForm(srv, base+"/versions", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(srv, base+"/versions", url.Values{"version_type": {"minor"}})
	assert.Equal(t, http.StatusCreated, w.Code)
}
