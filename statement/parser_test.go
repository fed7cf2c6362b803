package statement

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)

func TestParseStatement_CreditRow(t *testing.T) {
	content := `01/05/2024,"PAYMENT ABC",,"150000CR"`

	rows, err := ParseStatement(content, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Description != "PAYMENT ABC" {
		t.Fatalf("expected description PAYMENT ABC, got %q", row.Description)
	}
	if !row.Amount.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("expected amount 150000, got %s", row.Amount)
	}
	if row.Direction != DirectionCredit {
		t.Fatalf("expected Credit, got %s", row.Direction)
	}
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if !row.TransactionDate.Equal(want) {
		t.Fatalf("expected %s, got %s", want, row.TransactionDate)
	}
}

func TestParseStatement_YearInferredFromNow(t *testing.T) {
	rows, err := ParseStatement(`01/05,"PAYMENT ABC","150000CR",`, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].TransactionDate.Year() != 2024 {
		t.Fatalf("expected year 2024, got %d", rows[0].TransactionDate.Year())
	}
}

func TestParseStatement_DebitRowsExcluded(t *testing.T) {
	content := `01/05/2024,"PAYMENT ABC",,"150000CR"
02/05/2024,"SUPPLIER TRANSFER",,"80000DB"
03/05/2024,"PAYMENT XYZ",,"99000CR"`

	rows, err := ParseStatement(content, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 credit rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Direction != DirectionCredit {
			t.Fatalf("debit row leaked through: %+v", row)
		}
	}
}

func TestParseStatement_QuotedCommaInDescription(t *testing.T) {
	content := `01/05/2024,"TRANSFER FROM AUNG, MG","250000CR",`

	rows, err := ParseStatement(content, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Description != "TRANSFER FROM AUNG, MG" {
		t.Fatalf("quoted comma mangled description: %q", rows[0].Description)
	}
}

func TestParseStatement_MarkerFallbackToNextField(t *testing.T) {
	// Primary amount field blank; marked amount in the following field.
	rows, err := ParseStatement(`01/05/2024,"PAYMENT ABC",,"150000CR"`, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestParseStatement_ThousandsSeparators(t *testing.T) {
	rows, err := ParseStatement(`01/05/2024,"PAYMENT ABC","1,500,000.50CR",`, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if !rows[0].Amount.Equal(decimal.RequireFromString("1500000.50")) {
		t.Fatalf("expected 1500000.50, got %s", rows[0].Amount)
	}
}

func TestParseStatement_NoiseLinesSkipped(t *testing.T) {
	content := `ACCOUNT STATEMENT
Account No: 0012345678

01/05/2024,"PAYMENT ABC",,"150000CR"
CLOSING BALANCE,"1,234,567"`

	rows, err := ParseStatement(content, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row amid noise, got %d", len(rows))
	}
}

func TestParseStatement_CorruptContentIsParseError(t *testing.T) {
	_, err := ParseStatement("garbage\nmore garbage\n", testNow)
	if !utils.IsParseError(err) {
		t.Fatalf("expected parse error for unreadable content, got %v", err)
	}
}

func TestParseStatement_AllRowsSkippedIsNotAnError(t *testing.T) {
	// Readable rows that are all debits: valid file, empty result. The
	// import layer turns this into a validation message, not a parse error.
	rows, err := ParseStatement(`01/05/2024,"SUPPLIER TRANSFER",,"80000DB"`, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestParseStatement_MalformedAmountSkipped(t *testing.T) {
	content := `01/05/2024,"PAYMENT ABC",,"abcCR"
02/05/2024,"PAYMENT XYZ",,"99000CR"`

	rows, err := ParseStatement(content, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected malformed row skipped, got %d rows", len(rows))
	}
	if rows[0].Description != "PAYMENT XYZ" {
		t.Fatalf("wrong surviving row: %q", rows[0].Description)
	}
}

func TestParseStatement_MissingMarkerSkipped(t *testing.T) {
	rows, err := ParseStatement(`01/05/2024,"PAYMENT ABC","150000",`, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("unmarked amount must be skipped, got %d rows", len(rows))
	}
}

func TestTokenizeLine(t *testing.T) {
	fields := tokenizeLine(`01/05/2024,"A, B",,"150000CR"`)
	want := []string{"01/05/2024", "A, B", "", "150000CR"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("field %d: expected %q, got %q", i, want[i], fields[i])
		}
	}
}
