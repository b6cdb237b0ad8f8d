package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"patientcluster/internal/errors"
	"patientcluster/internal/export"
	"patientcluster/internal/logger"
	"patientcluster/internal/pipeline"

	"github.com/gin-gonic/gin"
)

var validExtensions = []string{".xlsx", ".csv"}

// handleIndex renders the upload form
func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, "index.html", indexView{})
}

// handleUpload runs the pipeline on the uploaded file and renders the result page
func (s *Server) handleUpload(c *gin.Context) {
	upload, ok := s.readUpload(c, "handleUpload")
	if !ok {
		return
	}

	result, err := pipeline.Run(c.Request.Context(), upload)
	if err != nil {
		s.renderError(c, "handleUpload", err)
		return
	}
	s.options.Recorder.Record(c.Request.Context(), upload.Filename, result)

	view, err := newResultView(result)
	if err != nil {
		s.renderError(c, "handleUpload", err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "result.html", view)
}

// handleDownload runs the pipeline and streams the clustered CSV as an attachment
func (s *Server) handleDownload(c *gin.Context) {
	upload, ok := s.readUpload(c, "handleDownload")
	if !ok {
		return
	}
	// the download never rewrites the snapshot
	upload.SnapshotPath = ""

	result, err := pipeline.Run(c.Request.Context(), upload)
	if err != nil {
		c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.DownloadFilename))
	c.Data(http.StatusOK, export.DownloadMIMEType, result.CSV)
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readUpload extracts the multipart "dataset" file. On failure it renders
// the form with an error and returns false.
func (s *Server) readUpload(c *gin.Context, handler string) (pipeline.Upload, bool) {
	log := logger.FromContext(c.Request.Context())

	if s.options.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.options.MaxUploadBytes)
	}

	file, header, err := c.Request.FormFile("dataset")
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		log.Infow(fmt.Sprintf("[%s] upload body too large", handler), "limit", tooLarge.Limit)
		s.renderTemplate(c, http.StatusRequestEntityTooLarge, "index.html", indexView{
			Error: fmt.Sprintf("File exceeds the %s upload limit", formatLimit(tooLarge.Limit)),
		})
		return pipeline.Upload{}, false
	}
	if err != nil {
		log.Infow(fmt.Sprintf("[%s] no file uploaded", handler), logger.FieldError, err)
		s.renderTemplate(c, http.StatusBadRequest, "index.html", indexView{Error: "Please choose a CSV or Excel file to upload."})
		return pipeline.Upload{}, false
	}
	defer file.Close()

	if s.options.MaxUploadBytes > 0 && header.Size > s.options.MaxUploadBytes {
		log.Infow(fmt.Sprintf("[%s] file too large", handler), logger.FieldFile, header.Filename, "bytes", header.Size)
		s.renderTemplate(c, http.StatusRequestEntityTooLarge, "index.html", indexView{
			Error: fmt.Sprintf("File size (%.1f MB) exceeds the %s upload limit", float64(header.Size)/(1024*1024), formatLimit(s.options.MaxUploadBytes)),
		})
		return pipeline.Upload{}, false
	}

	if !hasValidExtension(header.Filename) {
		log.Infow(fmt.Sprintf("[%s] invalid file extension", handler), logger.FieldFile, header.Filename)
		s.renderTemplate(c, http.StatusBadRequest, "index.html", indexView{Error: "Only CSV (.csv) and Excel (.xlsx) files are allowed"})
		return pipeline.Upload{}, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Warnw(fmt.Sprintf("[%s] failed to read upload", handler), logger.FieldError, err)
		s.renderTemplate(c, http.StatusBadRequest, "index.html", indexView{Error: "The uploaded file could not be read."})
		return pipeline.Upload{}, false
	}

	return pipeline.Upload{
		Filename:     header.Filename,
		Data:         data,
		SnapshotPath: s.options.SnapshotPath,
	}, true
}

// renderError shows a pipeline failure on the upload form
func (s *Server) renderError(c *gin.Context, handler string, err error) {
	logger.FromContext(c.Request.Context()).Warnw(fmt.Sprintf("[%s] pipeline failed", handler),
		logger.FieldError, err,
		logger.FieldErrorCode, errors.GetCode(err))
	s.renderTemplate(c, errors.HTTPStatus(err), "index.html", indexView{Error: userMessage(err)})
}

// userMessage returns the message of the outermost application error, or
// a generic line for unexpected failures.
func userMessage(err error) string {
	switch errors.GetCode(err) {
	case errors.CodeDataLoad, errors.CodeInvalidInput, errors.CodeValidationError:
		return err.Error()
	default:
		return "Clustering failed unexpectedly. Please try again."
	}
}

func hasValidExtension(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range validExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// formatLimit renders an upload limit in whole megabytes, or bytes below 1 MB
func formatLimit(limit int64) string {
	if limit < 1024*1024 {
		return fmt.Sprintf("%d B", limit)
	}
	return fmt.Sprintf("%d MB", limit/(1024*1024))
}
