package excel

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"aitaflow/domain/aggregate"
	"aitaflow/domain/core"
	"aitaflow/domain/judgement"
	"aitaflow/domain/labels"

	"github.com/xuri/excelize/v2"
)

// SheetName is the only sheet the label table uses
const SheetName = "Sheet1"

var header = []string{
	"id", "title", "score", "selftext", "num_comments", "created_utc",
	"YTA", "NTA", "NAH", "ESH", "total", "judgement", "distribution",
	"label_multiclass", "label_multilabel", "label_regression", "label_twoclass_multilabel",
	"run_id",
}

// TableWriter writes labelled posts to an xlsx workbook
type TableWriter struct{}

// NewTableWriter creates a new table writer
func NewTableWriter() *TableWriter {
	return &TableWriter{}
}

// WriteLabelTable writes one header row and one row per post to Sheet1
func (w *TableWriter) WriteLabelTable(path string, rows []labels.Row) error {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := sw.SetRow("A1", headerCells); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cells, err := rowCells(row)
		if err != nil {
			return fmt.Errorf("failed to encode row for %s: %w", row.ID, err)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	log.Printf("[TableWriter] wrote %d rows to %s in %.2fms", len(rows), path, float64(time.Since(start).Microseconds())/1000)
	return nil
}

func rowCells(row labels.Row) ([]interface{}, error) {
	dist, err := json.Marshal(row.Distribution)
	if err != nil {
		return nil, err
	}
	vectors := make([]string, 0, 4)
	for _, v := range []interface{}{row.Labels.Multiclass, row.Labels.Multilabel, row.Labels.Regression, row.Labels.TwoClass} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, string(data))
	}

	var numComments, created interface{}
	if row.NumComments != nil {
		numComments = *row.NumComments
	}
	if row.CreatedUTC != nil {
		created = *row.CreatedUTC
	}

	return []interface{}{
		row.ID.String(), row.Title, row.Score, row.SelfText, numComments, created,
		row.Weights.Get(judgement.YTA), row.Weights.Get(judgement.NTA),
		row.Weights.Get(judgement.NAH), row.Weights.Get(judgement.ESH),
		row.Total, row.Judgement.String(), string(dist),
		vectors[0], vectors[1], vectors[2], vectors[3],
		row.RunID.String(),
	}, nil
}

// ReadLabelTable loads a workbook written by WriteLabelTable
func ReadLabelTable(path string) ([]labels.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetRows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SheetName, err)
	}
	if len(sheetRows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	out := make([]labels.Row, 0, len(sheetRows)-1)
	for i, cells := range sheetRows[1:] {
		row, err := parseRow(cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func parseRow(cells []string) (labels.Row, error) {
	// GetRows drops trailing empty cells
	for len(cells) < len(header) {
		cells = append(cells, "")
	}
	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return cells[i]
			}
		}
		return ""
	}

	var row labels.Row
	var err error

	row.ID, err = core.ParsePostID(col("id"))
	if err != nil {
		return row, err
	}
	row.RunID = core.RunID(col("run_id"))
	row.Title = col("title")
	row.SelfText = col("selftext")
	if row.Score, err = atoi(col("score")); err != nil {
		return row, err
	}
	if s := col("num_comments"); s != "" {
		n, err := atoi(s)
		if err != nil {
			return row, err
		}
		row.NumComments = &n
	}
	if s := col("created_utc"); s != "" {
		c, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return row, err
		}
		row.CreatedUTC = &c
	}

	row.Weights = aggregate.Weights{}
	for _, j := range judgement.All() {
		v, err := atoi(col(j.String()))
		if err != nil {
			return row, err
		}
		if v != 0 {
			row.Weights[j] = v
		}
	}
	if row.Total, err = atoi(col("total")); err != nil {
		return row, err
	}
	if row.Judgement, err = judgement.Parse(col("judgement")); err != nil {
		return row, err
	}
	if err := json.Unmarshal([]byte(col("distribution")), &row.Distribution); err != nil {
		return row, err
	}
	for name, target := range map[string]interface{}{
		"label_multiclass":          &row.Labels.Multiclass,
		"label_multilabel":          &row.Labels.Multilabel,
		"label_regression":          &row.Labels.Regression,
		"label_twoclass_multilabel": &row.Labels.TwoClass,
	} {
		if err := json.Unmarshal([]byte(col(name)), target); err != nil {
			return row, fmt.Errorf("%s: %w", name, err)
		}
	}
	return row, nil
}

func atoi(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
