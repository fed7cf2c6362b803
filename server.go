package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/middlewares"
	"bitbucket.org/mmdatafocus/recon_backend/models"
	"bitbucket.org/mmdatafocus/recon_backend/models/reports"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"bitbucket.org/mmdatafocus/recon_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case utils.IsValidationError(err), utils.IsParseError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case utils.IsConflictError(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case utils.IsLedgerPostingError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func paramId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryDate(c *gin.Context, name string) *time.Time {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		info, err := models.Login(c.Request.Context(), input.Username, input.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func importStatementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "statement file is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "statement file could not be opened"})
			return
		}
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "statement file could not be read"})
			return
		}

		result, err := models.ImportStatement(c.Request.Context(), fileHeader.Filename, content)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func listMutationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var limit *int
		if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = &n
			}
		}
		var after *string
		if raw := strings.TrimSpace(c.Query("after")); raw != "" {
			after = &raw
		}
		var status *models.MutationStatus
		if raw := strings.TrimSpace(c.Query("status")); raw != "" {
			s := models.MutationStatus(raw)
			if !s.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			status = &s
		}
		var search *string
		if raw := strings.TrimSpace(c.Query("search")); raw != "" {
			search = &raw
		}

		connection, err := models.PaginateBankMutations(c.Request.Context(),
			limit, after, status, search, queryDate(c, "start_date"), queryDate(c, "end_date"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

func candidateFilterFromQuery(c *gin.Context) workflow.CandidateFilter {
	filter := workflow.CandidateFilter{
		StartDate: queryDate(c, "start_date"),
		EndDate:   queryDate(c, "end_date"),
	}
	if raw := strings.TrimSpace(c.Query("kind")); raw != "" {
		kind := models.CandidateKind(raw)
		filter.Kind = &kind
	}
	if raw := strings.TrimSpace(c.Query("branch_id")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.BranchId = &n
		}
	}
	return filter
}

func listCandidatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		candidates, err := workflow.FetchPendingCandidates(c.Request.Context(), candidateFilterFromQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"candidates": candidates})
	}
}

func scoredCandidatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		mutationId, ok := paramId(c, "id")
		if !ok {
			return
		}
		scored, err := workflow.FetchScoredCandidates(c.Request.Context(), mutationId, candidateFilterFromQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"candidates": scored})
	}
}

func createMatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.NewMatch
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		match, err := workflow.CreateMatch(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, match)
	}
}

func unmatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		matchId, ok := paramId(c, "id")
		if !ok {
			return
		}
		mutation, err := workflow.Unmatch(c.Request.Context(), matchId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, mutation)
	}
}

func approveMatchHandler(gateway workflow.LedgerGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchId, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input struct {
			DepositAccountId int `json:"deposit_account_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		match, err := workflow.ApproveMatch(c.Request.Context(), gateway, matchId, input.DepositAccountId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, match)
	}
}

func recordManualHandler(gateway workflow.LedgerGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		mutationId, ok := paramId(c, "id")
		if !ok {
			return
		}
		var input workflow.NewManualRecord
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.MutationId = mutationId
		entry, err := workflow.RecordManual(c.Request.Context(), gateway, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

func ignoreMutationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		mutationId, ok := paramId(c, "id")
		if !ok {
			return
		}
		mutation, err := workflow.IgnoreMutation(c.Request.Context(), mutationId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, mutation)
	}
}

func listAccountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := models.ListActiveAccounts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accounts": accounts})
	}
}

func listBranchesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		branches, err := models.ListBranches(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"branches": branches})
	}
}

func reconciliationSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := reports.GetReconciliationSummary(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}

func exportUnreconciledHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := reports.ExportUnreconciledMutationsExcel(c.Request.Context(),
			queryDate(c, "start_date"), queryDate(c, "end_date"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=unreconciled.xlsx")
		if err := f.Write(c.Writer); err != nil {
			respondError(c, err)
		}
	}
}

// customErrorLogger logs only requests that recorded errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(customErrorLogger(logger))

	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())

	gateway := workflow.NewJournalGateway(logger)

	r.POST("/login", loginHandler())

	api := r.Group("/", middlewares.RequireAuth())
	api.POST("/statements/import", importStatementHandler())
	api.GET("/mutations", listMutationsHandler())
	api.GET("/mutations/:id/candidates", scoredCandidatesHandler())
	api.POST("/mutations/:id/record-manual", recordManualHandler(gateway))
	api.POST("/mutations/:id/ignore", ignoreMutationHandler())
	api.GET("/candidates", listCandidatesHandler())
	api.POST("/matches", createMatchHandler())
	api.DELETE("/matches/:id", unmatchHandler())
	api.POST("/matches/:id/approve", approveMatchHandler(gateway))
	api.GET("/accounts", listAccountsHandler())
	api.GET("/branches", listBranchesHandler())
	api.GET("/reports/reconciliation-summary", reconciliationSummaryHandler())
	api.GET("/reports/unreconciled/export", exportUnreconciledHandler())

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
