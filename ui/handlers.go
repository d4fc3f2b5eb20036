package ui

import (
	"bytes"
	"html/template"
	"net/http"

	"aitaflow/app"
	"aitaflow/domain/judgement"
	"aitaflow/domain/labels"
)

type indexPage struct {
	Report     *app.Report
	ReportHTML template.HTML
	Rows       []labels.Row
	Judgements []judgement.Judgement
	Message    string
}

func (a *App) loadReport(r *http.Request) (*app.Report, []labels.Row, error) {
	rows, err := a.repo.List(r.Context(), reportSize, 0)
	if err != nil {
		return nil, nil, err
	}
	report, err := app.Summarize(rows)
	if err != nil {
		return nil, nil, err
	}
	return report, rows, nil
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Judgements: judgement.All()}

	if a.repo == nil {
		page.Message = "Label storage is not configured; set DATABASE_URL to browse stored runs."
		a.renderTemplate(w, "index.html", page)
		return
	}

	report, rows, err := a.loadReport(r)
	if err != nil {
		a.logger.Error("failed to build report: %v", err)
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}
	if len(rows) == 0 {
		page.Message = "No labelled posts yet."
	} else {
		page.Report = report
		page.ReportHTML = template.HTML(report.HTML())
		page.Rows = rows
	}
	a.renderTemplate(w, "index.html", page)
}

func (a *App) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	if a.repo == nil {
		http.Error(w, "label storage is not configured", http.StatusServiceUnavailable)
		return
	}
	report, _, err := a.loadReport(r)
	if err != nil {
		a.logger.Error("failed to build report: %v", err)
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(report.Markdown()))
}

// renderTemplate renders to a buffer first so a failing template never
// produces a half-written page
func (a *App) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template error for %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("failed to write response: %v", err)
	}
}
