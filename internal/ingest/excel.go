// Package ingest imports field values from Excel workbooks, the
// spreadsheet input method of a data-injection session.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/session"
)

// Row is one field_id/value pair read from a workbook.
type Row struct {
	FieldID string
	Raw     string
}

// Report summarizes one import run.
type Report struct {
	Applied int
	Skipped []string
}

// ReadWorkbook reads the first sheet of an XLSX file. The expected
// layout is two columns, field_id and value, with an optional header
// row (detected by a literal "field_id" in the first cell).
func ReadWorkbook(path string) ([]Row, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: workbook %s has no sheets", path)
	}

	var rows []Row
	for i, row := range f.Sheets[0].Rows {
		if len(row.Cells) < 2 {
			continue
		}
		id := strings.TrimSpace(row.Cells[0].String())
		raw := strings.TrimSpace(row.Cells[1].String())
		if id == "" {
			continue
		}
		if i == 0 && strings.EqualFold(id, "field_id") {
			continue
		}
		rows = append(rows, Row{FieldID: id, Raw: raw})
	}
	return rows, nil
}

// Apply coerces each row to its declared field type and feeds it into
// the tracker with source=excel. Rows referencing unknown fields, file
// fields, or unparseable values are skipped and reported, not fatal;
// a sheet with one bad row still imports the rest.
func Apply(tr *session.Tracker, rows []Row) (*Report, error) {
	rep := &Report{}
	for _, row := range rows {
		ref, ok := tr.Field(row.FieldID)
		if !ok {
			rep.Skipped = append(rep.Skipped, row.FieldID+": unknown field")
			continue
		}
		if ref.Field.Type == model.FieldFile {
			rep.Skipped = append(rep.Skipped, row.FieldID+": file fields require an upload")
			continue
		}

		value, err := model.ParseValue(ref.Field.Type, row.Raw)
		if err != nil {
			rep.Skipped = append(rep.Skipped, row.FieldID+": "+err.Error())
			continue
		}
		if _, err := tr.UpdateField(row.FieldID, value, model.SourceExcel); err != nil {
			return rep, eris.Wrapf(err, "ingest: apply %s", row.FieldID)
		}
		rep.Applied++
	}

	zap.L().Info("ingest: workbook applied",
		zap.String("session_id", tr.Session().SessionID),
		zap.Int("applied", rep.Applied),
		zap.Int("skipped", len(rep.Skipped)),
	)
	return rep, nil
}
