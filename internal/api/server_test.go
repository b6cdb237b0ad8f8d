package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"patientcluster/internal/errors"
	"patientcluster/internal/export"
	"patientcluster/internal/history"
	"patientcluster/internal/testkit"
	"patientcluster/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	runs []*models.ClusterRun
}

func (m *memoryRepo) Record(_ context.Context, run *models.ClusterRun) error {
	m.runs = append([]*models.ClusterRun{run}, m.runs...)
	return nil
}

func (m *memoryRepo) ListRecent(_ context.Context, limit int) ([]*models.ClusterRun, error) {
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func uploadRequest(t *testing.T, path, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("dataset", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestServer(t *testing.T, repo *memoryRepo) *Server {
	t.Helper()
	config := Config{SnapshotPath: filepath.Join(t.TempDir(), export.DefaultSnapshotPath)}
	if repo != nil {
		config.Recorder = history.NewRecorder(repo)
	}
	return NewServer(config)
}

func TestCluster(t *testing.T) {
	repo := &memoryRepo{}
	s := newTestServer(t, repo)
	data, truth, err := testkit.NewPatientDataGenerator(testkit.DefaultPatientConfig()).CSV()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/v1/cluster", "blobs.csv", data))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp clusterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 30, resp.Rows)
	assert.Len(t, resp.Labels, len(truth))
	assert.Len(t, resp.Methods, 3)
	assert.Greater(t, resp.Score, 0.5)
	assert.Equal(t, []string{"marker_a", "marker_b"}, resp.Features)
	assert.Empty(t, resp.Warning)

	require.Len(t, repo.runs, 1)
	assert.Equal(t, resp.RunID, repo.runs[0].ID.String())
}

func TestClusterIdenticalRows(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/v1/cluster", "same.csv", testkit.IdenticalCSV(6)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp clusterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "KMeans", string(resp.Method))
	assert.Equal(t, -1.0, resp.Score)
	for _, m := range resp.Methods {
		assert.Equal(t, -1.0, m.Score)
	}
}

func TestClusterCSV(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/v1/cluster/csv", "smokers.csv", testkit.CategoricalCSV()))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "clustered_patients.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Equal(t, "smoker,Cluster", lines[0])
	assert.Len(t, lines, 11)
}

func TestClusterErrors(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/v1/cluster", "bad.csv", []byte("a,b\n")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.CodeDataLoad, body["code"])

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/v1/cluster", "flat.csv", []byte("site\nnorth\nnorth\n")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cluster", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClusterUploadTooLarge(t *testing.T) {
	s := NewServer(Config{
		SnapshotPath:   filepath.Join(t.TempDir(), export.DefaultSnapshotPath),
		MaxUploadBytes: 64,
	})
	data, _, err := testkit.NewPatientDataGenerator(testkit.DefaultPatientConfig()).CSV()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/v1/cluster", "blobs.csv", data))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "upload exceeds the 64 byte limit", body["error"])
}

func TestListRuns(t *testing.T) {
	repo := &memoryRepo{}
	s := newTestServer(t, repo)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, uploadRequest(t, "/api/v1/cluster/csv", "smokers.csv", testkit.CategoricalCSV()))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Enabled bool                 `json:"enabled"`
		Runs    []*models.ClusterRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Enabled)
	assert.Len(t, body.Runs, 1)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRunsDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled":false,"runs":[]}`, rec.Body.String())
}
