// Package statement turns raw bank statement exports into canonical rows.
// It is DB-free on purpose: parsing is pure and embarrassingly parallel,
// persistence and dedup live in models.
package statement

import (
	"regexp"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionCredit Direction = "Credit"
	DirectionDebit  Direction = "Debit"
)

// ParsedRow is one accepted statement line. Only credit rows are emitted;
// debit rows are parsed then discarded.
type ParsedRow struct {
	TransactionDate time.Time
	Description     string
	Amount          decimal.Decimal
	Direction       Direction
}

// Lines must begin with DD/MM/YYYY or DD/MM to count as transaction rows.
// Everything else (headers, footers, balance lines) is noise.
var dateTokenPattern = regexp.MustCompile(`^(\d{2})/(\d{2})(/(\d{4}))?$`)

const (
	creditMarker = "CR"
	debitMarker  = "DB"
)

// ParseStatement parses the raw text content of an exported statement.
// now supplies the year for exports that print DD/MM without a year.
//
// It returns a ParseError when the content cannot be tokenized as rows at
// all; a readable statement whose rows are all skipped (debits, malformed
// amounts) yields an empty slice and nil error, which the import layer
// reports as "no inbound transactions found".
func ParseStatement(content string, now time.Time) ([]ParsedRow, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	rows := make([]ParsedRow, 0, len(lines))
	candidateLines := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := tokenizeLine(line)
		if len(fields) == 0 {
			continue
		}
		date, ok := parseDateToken(strings.TrimSpace(fields[0]), now)
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

// tokenizeLine splits a comma-delimited line, preserving commas inside
// double-quoted segments and stripping the surrounding quotes.
func tokenizeLine(line string) []string {
	fields := make([]string, 0, 8)
	var field strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	fields = append(fields, field.String())
	return fields
}

// parseDateToken normalizes DD/MM/YYYY directly, or DD/MM using the current
// year (some exports omit the year on every row but the first).
func parseDateToken(token string, now time.Time) (time.Time, bool) {
	m := dateTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return time.Time{}, false
	}

	if m[4] != "" {
		t, err := time.Parse("02/01/2006", token)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	t, err := time.Parse("02/01/2006", token+"/"+now.Format("2006"))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// buildRow applies the acceptance rules to one tokenized candidate line:
// at least 4 fields, a parseable positive amount, credit direction.
func buildRow(fields []string, date time.Time) (ParsedRow, bool) {
	if len(fields) < 4 {
		return ParsedRow{}, false
	}

	description := strings.TrimSpace(fields[1])

	// The amount carries a trailing CR/DB marker. Some exports leave the
	// primary amount field blank and put the marked amount in the next one.
	amountField := strings.TrimSpace(fields[2])
	direction, numeric := splitDirectionMarker(amountField)
	if direction == "" {
		amountField = strings.TrimSpace(fields[3])
		direction, numeric = splitDirectionMarker(amountField)
	}
	if direction == "" {
		return ParsedRow{}, false
	}
	if direction == DirectionDebit {
		return ParsedRow{}, false
	}

	amount, err := utils.ParseDecimal(numeric)
	if err != nil {
		return ParsedRow{}, false
	}
	if !amount.IsPositive() {
		return ParsedRow{}, false
	}

	return ParsedRow{
		TransactionDate: date,
		Description:     description,
		Amount:          amount,
		Direction:       direction,
	}, true
}

func splitDirectionMarker(field string) (Direction, string) {
	switch {
	case strings.HasSuffix(field, creditMarker):
		return DirectionCredit, strings.TrimSpace(strings.TrimSuffix(field, creditMarker))
	case strings.HasSuffix(field, debitMarker):
		return DirectionDebit, strings.TrimSpace(strings.TrimSuffix(field, debitMarker))
	default:
		return "", field
	}
}
