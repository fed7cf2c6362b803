// import-statement loads a statement export from disk for a business, the
// same code path the upload endpoint uses. Handy for backfilling history or
// re-running a problematic file without the console.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... go run ./cmd/import-statement -business <id> -user <id> -file statement.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/models"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
)

func main() {
	businessId := flag.String("business", "", "business id to import into")
	userId := flag.Int("user", 0, "user id recorded as importer")
	filePath := flag.String("file", "", "path to the statement export (.csv or .xlsx)")
	flag.Parse()

	if *businessId == "" || *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: import-statement -business <id> [-user <id>] -file <path>")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx := context.Background()
	ctx = utils.SetBusinessIdInContext(ctx, *businessId)
	ctx = utils.SetUserIdInContext(ctx, *userId)

	if _, err := models.GetBusinessById(ctx, *businessId); err != nil {
		fmt.Fprintf(os.Stderr, "business %s not found: %v\n", *businessId, err)
		os.Exit(2)
	}

	content, err := os.ReadFile(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *filePath, err)
		os.Exit(1)
	}

	result, err := models.ImportStatement(ctx, filepath.Base(*filePath), content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("batch %s: %d inserted, %d duplicates skipped\n",
		result.ImportBatchId, result.InsertedCount, result.DuplicateCount)
}
