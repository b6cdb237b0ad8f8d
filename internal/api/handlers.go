package api

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"patientcluster/internal/clustering"
	"patientcluster/internal/errors"
	"patientcluster/internal/export"
	"patientcluster/internal/logger"
	"patientcluster/internal/pipeline"
)

// methodSummary is one method's entry in a cluster response
type methodSummary struct {
	Method   clustering.Method `json:"method"`
	Score    float64           `json:"score"`
	Clusters int               `json:"clusters"`
	Noise    int               `json:"noise"`
}

// clusterResponse is the JSON body of POST /api/v1/cluster
type clusterResponse struct {
	RunID      string                     `json:"run_id"`
	Filename   string                     `json:"filename"`
	Rows       int                        `json:"rows"`
	Columns    []string                   `json:"columns"`
	Features   []string                   `json:"features"`
	Dropped    []string                   `json:"dropped,omitempty"`
	Method     clustering.Method          `json:"method"`
	Score      float64                    `json:"score"`
	Methods    []methodSummary            `json:"methods"`
	Labels     []int                      `json:"labels"`
	Dendrogram *clustering.DendrogramNode `json:"dendrogram,omitempty"`
	Warning    string                     `json:"warning,omitempty"`
}

func newClusterResponse(result *pipeline.Result) clusterResponse {
	features := make([]string, len(result.Features))
	for i, f := range result.Features {
		features[i] = f.Name
	}
	methods := make([]methodSummary, len(result.Methods))
	for i, m := range result.Methods {
		methods[i] = methodSummary{Method: m.Method, Score: m.Score, Clusters: m.Clusters, Noise: m.Noise}
	}
	resp := clusterResponse{
		RunID:      result.RunID,
		Filename:   result.Input.Name,
		Rows:       result.Input.NumRows(),
		Columns:    result.Input.Headers,
		Features:   features,
		Dropped:    result.Dropped,
		Method:     result.Best.Method,
		Score:      result.Best.Score,
		Methods:    methods,
		Labels:     result.Best.Labels,
		Dendrogram: result.Dendrogram,
	}
	if result.SnapshotErr != nil {
		resp.Warning = result.SnapshotErr.Error()
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCluster runs the pipeline and returns a JSON summary
func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	result, filename, ok := s.run(w, r, s.config.SnapshotPath)
	if !ok {
		return
	}
	s.config.Recorder.Record(r.Context(), filename, result)
	writeJSON(w, http.StatusOK, newClusterResponse(result))
}

// handleClusterCSV runs the pipeline and returns the clustered CSV
func (s *Server) handleClusterCSV(w http.ResponseWriter, r *http.Request) {
	result, filename, ok := s.run(w, r, "")
	if !ok {
		return
	}
	s.config.Recorder.Record(r.Context(), filename, result)

	w.Header().Set("Content-Type", export.DownloadMIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.DownloadFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.CSV); err != nil {
		logger.FromContext(r.Context()).Warnw("failed to write CSV response", logger.FieldError, err)
	}
}

// handleListRuns returns recorded runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.CodeValidationError, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.config.Recorder.Recent(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).Errorw("[handleListRuns] failed to list runs", logger.FieldError, err)
		writeError(w, errors.HTTPStatus(err), errors.GetCode(err), "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": s.config.Recorder.Enabled(),
		"runs":    runs,
	})
}

// run reads the multipart "dataset" file and executes the pipeline. On
// failure it writes the error response and returns false.
func (s *Server) run(w http.ResponseWriter, r *http.Request, snapshotPath string) (*pipeline.Result, string, bool) {
	if s.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	}

	file, header, err := r.FormFile("dataset")
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, errors.CodeInvalidInput,
			fmt.Sprintf("upload exceeds the %d byte limit", tooLarge.Limit))
		return nil, "", false
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.CodeInvalidInput, "multipart field \"dataset\" is required")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.CodeDataLoad, "failed to read upload")
		return nil, "", false
	}

	result, err := pipeline.Run(r.Context(), pipeline.Upload{
		Filename:     header.Filename,
		Data:         data,
		SnapshotPath: snapshotPath,
	})
	if err != nil {
		logger.FromContext(r.Context()).Warnw("[api] pipeline failed",
			logger.FieldFile, header.Filename,
			logger.FieldError, err,
			logger.FieldErrorCode, errors.GetCode(err))
		writeError(w, errors.HTTPStatus(err), errors.GetCode(err), err.Error())
		return nil, "", false
	}
	return result, header.Filename, true
}
