package ui

import (
	"encoding/base64"
	"fmt"
	"html/template"

	"patientcluster/domain/dataset"
	"patientcluster/internal/clustering"
	"patientcluster/internal/export"
	"patientcluster/internal/pipeline"
	"patientcluster/internal/render"
)

type indexView struct {
	Error string
}

type tableView struct {
	Headers []string
	Rows    [][]string
	Total   int
}

type resultView struct {
	RunID          string
	Input          tableView
	Output         tableView
	Method         clustering.Method
	Score          float64
	Report         template.HTML
	ScatterHTML    string
	DendrogramHTML string
	DownloadURL    template.URL
	DownloadName   string
	SnapshotWarn   string
}

func newTableView(t *dataset.Table) tableView {
	head := t.Head(pipeline.PreviewRows)
	return tableView{Headers: head.Headers, Rows: head.Rows, Total: t.NumRows()}
}

func newResultView(result *pipeline.Result) (*resultView, error) {
	if result.Output == nil {
		return nil, fmt.Errorf("result has no output table")
	}

	view := &resultView{
		RunID:        result.RunID,
		Input:        newTableView(result.Input),
		Output:       newTableView(result.Output),
		Method:       result.Best.Method,
		Score:        result.Best.Score,
		Report:       template.HTML(render.ReportHTML(result.Report)),
		ScatterHTML:  string(result.ScatterHTML),
		DownloadURL:  template.URL("data:" + export.DownloadMIMEType + ";base64," + base64.StdEncoding.EncodeToString(result.CSV)),
		DownloadName: export.DownloadFilename,
	}
	if result.DendrogramHTML != nil {
		view.DendrogramHTML = string(result.DendrogramHTML)
	}
	if result.SnapshotErr != nil {
		view.SnapshotWarn = fmt.Sprintf("The result snapshot could not be saved: %v", result.SnapshotErr)
	}
	return view, nil
}
