package statement

import (
	"bytes"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"github.com/xuri/excelize/v2"
)

// ParseStatementXLSX handles banks that export statements as .xlsx instead
// of delimited text. Cells map onto the same field layout as text rows, so
// the acceptance rules are shared with ParseStatement.
func ParseStatementXLSX(data []byte, now time.Time) ([]ParsedRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, utils.NewParseError("statement could not be read: invalid xlsx file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, utils.NewParseError("statement could not be read: workbook has no sheets")
	}
	cellRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, utils.NewParseError("statement could not be read: " + err.Error())
	}

	rows := make([]ParsedRow, 0, len(cellRows))
	candidateLines := 0
	for _, fields := range cellRows {
		if len(fields) == 0 {
			continue
		}
		date, ok := parseDateToken(trimCell(fields[0]), now)
		if !ok {
			continue
		}
		candidateLines++

		row, ok := buildRow(fields, date)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	if candidateLines == 0 {
		return nil, utils.NewParseError("statement could not be read: no transaction rows recognized")
	}
	return rows, nil
}

func trimCell(s string) string {
	// excelize returns cell text as-is; leading BOM or padding shows up in
	// exports from some banks.
	return string(bytes.TrimSpace([]byte(s)))
}
