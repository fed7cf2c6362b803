package models

import (
	"context"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/statement"
)

// NOTE: Import dedup rests on the identity unique index plus insert-ignore,
// which only MySQL can prove end to end. What is provable DB-free is that
// re-parsing the same export always yields the same identity tuples, so the
// index sees byte-identical keys on every re-import.

func identityKey(businessId string, row statement.ParsedRow) string {
	return strings.Join([]string{
		businessId,
		row.TransactionDate.Format("2006-01-02"),
		DescriptionIdentityHash(row.Description),
		row.Amount.String(),
		string(row.Direction),
	}, "|")
}

func TestImportIdentity_RepeatParseYieldsSameKeys(t *testing.T) {
	content := `01/05/2024,"PAYMENT ABC",,"150000CR"
02/05/2024,"PAYMENT XYZ",,"99000CR"`
	now := time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)

	first, err := statement.ParseStatement(content, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := statement.ParseStatement(content, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 rows per parse, got %d and %d", len(first), len(second))
	}
	for i := range first {
		a := identityKey("biz-1", first[i])
		b := identityKey("biz-1", second[i])
		if a != b {
			t.Fatalf("row %d: identity keys differ between parses:\n%s\n%s", i, a, b)
		}
	}
}

func TestImportIdentity_DistinctRowsYieldDistinctKeys(t *testing.T) {
	now := time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)
	rows, err := statement.ParseStatement(`01/05/2024,"PAYMENT ABC",,"150000CR"
01/05/2024,"PAYMENT ABC",,"150001CR"
02/05/2024,"PAYMENT ABC",,"150000CR"`, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		key := identityKey("biz-1", row)
		if seen[key] {
			t.Fatalf("distinct rows collided on identity key %s", key)
		}
		seen[key] = true
	}
}

func TestImportBatch_EmptyIsNoop(t *testing.T) {
	inserted, err := ImportBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected 0 inserted, got %d", inserted)
	}
}

func TestDescriptionIdentityHash_NormalizesCaseAndWhitespace(t *testing.T) {
	base := DescriptionIdentityHash("PAYMENT ABC")

	variants := []string{
		"payment abc",
		"  PAYMENT   ABC  ",
		"Payment\tAbc",
	}
	for _, v := range variants {
		if DescriptionIdentityHash(v) != base {
			t.Fatalf("variant %q should hash identically to PAYMENT ABC", v)
		}
	}
}

func TestDescriptionIdentityHash_DistinguishesContent(t *testing.T) {
	if DescriptionIdentityHash("PAYMENT ABC") == DescriptionIdentityHash("PAYMENT ABD") {
		t.Fatal("different descriptions must not collide")
	}
}

func TestDescriptionIdentityHash_FixedLength(t *testing.T) {
	if got := len(DescriptionIdentityHash("x")); got != 64 {
		t.Fatalf("expected 64 hex chars, got %d", got)
	}
	if got := len(DescriptionIdentityHash("")); got != 64 {
		t.Fatalf("expected 64 hex chars for empty input, got %d", got)
	}
}
