// Analysis HTTP handlers.
//
// This file exposes REST endpoints for sentiment analysis resources:
//   - POST /analysis             (analyze a text and persist the result)
//   - GET  /analysis/history     (list the user's results, paginated, ETag support)
//   - GET  /analysis/{id}        (fetch a single result)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, key), the handler returns that recorded analysis
// and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/http/middleware"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
	"github.com/tbourn/go-sentiment-backend/internal/services"
	"github.com/tbourn/go-sentiment-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AnalysisService defines sentiment analysis operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AnalysisService interface {
	// Analyze classifies text for userID and persists the result.
	Analyze(ctx context.Context, userID, text string) (*domain.AnalysisRecord, error)
	// History returns a page of the user's results and the total count.
	History(ctx context.Context, userID string, page, limit int) ([]domain.AnalysisRecord, int64, error)
	// Get returns a single result that belongs to userID.
	Get(ctx context.Context, userID, id string) (*domain.AnalysisRecord, error)
	// Stats aggregates the user's analysis activity.
	Stats(ctx context.Context, userID string) (*services.UserStats, error)
}

// AuthService defines account lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates an account and returns the user plus a signed token.
	Register(ctx context.Context, username, email, password, name string) (*domain.User, string, error)
	// Login verifies credentials and returns the user plus a signed token.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// ChangePassword replaces the user's password after verifying the current one.
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// UserService defines profile operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type UserService interface {
	// Profile returns the user's account record.
	Profile(ctx context.Context, userID string) (*domain.User, error)
	// UpdateProfile updates display name and/or username; empty values keep current.
	UpdateProfile(ctx context.Context, userID, name, username string) (*domain.User, error)
	// DeleteAccount removes the user and all of their analysis records.
	DeleteAccount(ctx context.Context, userID string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for auth, analysis, and user profiles.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	authSvc     AuthService
	analysisSvc AnalysisService
	userSvc     UserService

	// IdemTTL bounds how long a stored Idempotency-Key remains replayable.
	// Zero means the 24h default.
	IdemTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(authSvc AuthService, analysisSvc AnalysisService, userSvc UserService) *Handlers {
	return &Handlers{authSvc: authSvc, analysisSvc: analysisSvc, userSvc: userSvc}
}

// userID extracts the authenticated user id from Gin context (set by the
// RequireAuth middleware). Routes using it must be mounted behind auth.
func userID(c *gin.Context) string {
	uid, _ := middleware.UserIDFrom(c)
	return uid
}

// analysisDB discovers the concrete service's database handle for ETag and
// idempotency lookups. Returns nil when the service is a test double.
func (h *Handlers) analysisDB() *gorm.DB {
	if svc, ok := h.analysisSvc.(*services.AnalysisService); ok {
		return svc.DB
	}
	return nil
}

//
// DTOs
//

// AnalyzeRequest is the JSON payload for submitting a text for analysis.
type AnalyzeRequest struct {
	// Text is the content to classify. It must be non-empty.
	Text string `json:"text" binding:"required,min=1" example:"I love this product, it works great!"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// HistoryResponse wraps a page of analysis records and pagination information.
type HistoryResponse struct {
	Analyses   []domain.AnalysisRecord `json:"analyses"`
	Pagination Pagination              `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and limit query params to sane
// defaults and limits, returning (page, limit).
func clampPagination(c *gin.Context) (page, limit int) {
	const (
		defaultPage  = 1
		defaultLimit = 10
		maxLimit     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	limit = utils.AtoiDefault(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return
}

//
// Handlers
//

// Analyze godoc
// @ID          analyzeText
// @Summary     Analyze the sentiment of a text
// @Description Classifies the submitted text, persists the result for the current user, and returns it.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Analysis
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.AnalyzeRequest  true  "Text payload"
//
// @Success     201  {object}  domain.AnalysisRecord
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /analysis [post]
func (h *Handlers) Analyze(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if db := h.analysisDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, uid, repo.ScopeAnalysis, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetAnalysis(ctx, db, rec.RecordID, uid); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, prev)
					return
				}
			}
		}
	}

	rec, err := h.analysisSvc.Analyze(ctx, uid, req.Text)
	if err != nil {
		switch err {
		case services.ErrEmptyText:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnalyzeFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.analysisDB(); db != nil {
			ttl := h.IdemTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			_, _ = repo.CreateIdempotency(ctx, db, uid, repo.ScopeAnalysis, idemKey, rec.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, rec)
}

// History godoc
// @ID          analysisHistory
// @Summary     List analysis history (paginated)
// @Description Returns a page of the user's analysis results, newest first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Analysis
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       limit          query   int     false "Items per page"  minimum(1) maximum(100) default(10)
//
// @Success     200  {object} handlers.HistoryResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /analysis/history [get]
func (h *Handlers) History(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, limit := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.analysisDB(); db != nil {
		count, maxTS, err := repo.AnalysesStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"analyses:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.analysisSvc.History(ctx, uid, page, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	ok(c, http.StatusOK, HistoryResponse{
		Analyses: items,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

// GetAnalysis godoc
// @ID          getAnalysis
// @Summary     Fetch a single analysis result
// @Description Returns one analysis record owned by the current user.
// @Tags        Analysis
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Analysis ID (UUID)"  format(uuid) example(141add05-4415-4938-b5a1-17e0d3171aff)
//
// @Success     200  {object} domain.AnalysisRecord
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Analysis not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /analysis/{id} [get]
func (h *Handlers) GetAnalysis(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "analysis id must be a UUID")
		return
	}

	rec, err := h.analysisSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		switch err {
		case services.ErrAnalysisNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "analysis not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, rec)
}
