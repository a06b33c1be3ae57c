package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/http/middleware"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
	"github.com/tbourn/go-sentiment-backend/internal/services"
)

// ---------- test DB + repo shim ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:analysis_handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Enforce FKs and migrate schemas
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.AnalysisRecord{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedHandlerUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	u := &domain.User{ID: id, Username: "u_" + id[:8], Email: id[:8] + "@example.com", PasswordHash: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

// Minimal shim implementing services.AnalysisRepo using repo package (like router.go)
type testAnalysisRepo struct{}

func (testAnalysisRepo) CreateAnalysis(ctx context.Context, db *gorm.DB, rec *domain.AnalysisRecord) error {
	return repo.CreateAnalysis(ctx, db, rec)
}

func (testAnalysisRepo) CountAnalyses(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountAnalyses(ctx, db, userID)
}

func (testAnalysisRepo) ListAnalysesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.AnalysisRecord, error) {
	return repo.ListAnalysesPage(ctx, db, userID, offset, limit)
}

func (testAnalysisRepo) ListRecentAnalyses(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.AnalysisRecord, error) {
	return repo.ListRecentAnalyses(ctx, db, userID, limit)
}

func (testAnalysisRepo) GetAnalysis(ctx context.Context, db *gorm.DB, id, userID string) (*domain.AnalysisRecord, error) {
	return repo.GetAnalysis(ctx, db, id, userID)
}

func (testAnalysisRepo) SentimentCounts(ctx context.Context, db *gorm.DB, userID string) (map[string]int64, error) {
	return repo.SentimentCounts(ctx, db, userID)
}

// ---------- tiny stubs for other services ----------

type stubAuthSvc struct{}

func (stubAuthSvc) Register(ctx context.Context, u, e, p, n string) (*domain.User, string, error) {
	return nil, "", nil
}

func (stubAuthSvc) Login(ctx context.Context, e, p string) (*domain.User, string, error) {
	return nil, "", nil
}

func (stubAuthSvc) ChangePassword(ctx context.Context, id, cur, next string) error { return nil }

type stubUserSvc struct{}

func (stubUserSvc) Profile(ctx context.Context, id string) (*domain.User, error) { return nil, nil }

func (stubUserSvc) UpdateProfile(ctx context.Context, id, n, u string) (*domain.User, error) {
	return nil, nil
}

func (stubUserSvc) DeleteAccount(ctx context.Context, id string) error { return nil }

// Flexible analysis service stub
type stubAnalysisSvc struct {
	analyze func(context.Context, string, string) (*domain.AnalysisRecord, error)
	history func(context.Context, string, int, int) ([]domain.AnalysisRecord, int64, error)
	get     func(context.Context, string, string) (*domain.AnalysisRecord, error)
	stats   func(context.Context, string) (*services.UserStats, error)
}

func (s stubAnalysisSvc) Analyze(ctx context.Context, uid, text string) (*domain.AnalysisRecord, error) {
	if s.analyze != nil {
		return s.analyze(ctx, uid, text)
	}
	return &domain.AnalysisRecord{ID: "a", UserID: uid, Text: text, Sentiment: "neutral", Confidence: 0.6}, nil
}

func (s stubAnalysisSvc) History(ctx context.Context, uid string, page, limit int) ([]domain.AnalysisRecord, int64, error) {
	if s.history != nil {
		return s.history(ctx, uid, page, limit)
	}
	return nil, 0, nil
}

func (s stubAnalysisSvc) Get(ctx context.Context, uid, id string) (*domain.AnalysisRecord, error) {
	if s.get != nil {
		return s.get(ctx, uid, id)
	}
	return nil, services.ErrAnalysisNotFound
}

func (s stubAnalysisSvc) Stats(ctx context.Context, uid string) (*services.UserStats, error) {
	if s.stats != nil {
		return s.stats(ctx, uid)
	}
	return &services.UserStats{}, nil
}

// asUser injects an authenticated identity the way RequireAuth does.
func asUser(uid string) gin.HandlerFunc {
	return func(c *gin.Context) { c.Set("userID", uid); c.Next() }
}

// ---------- helpers-only tests ----------

func Test_userID_and_clampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// userID helper: empty without auth middleware, value when set
	rc := gin.CreateTestContextOnly(httptest.NewRecorder(), gin.New())
	if got := userID(rc); got != "" {
		t.Fatalf("unauthenticated userID = %q", got)
	}
	rc.Set("userID", "u1")
	if got := userID(rc); got != "u1" {
		t.Fatalf("ctx userID = %q", got)
	}

	// clampPagination bounds
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest("GET", "/?page=-5&limit=9999", nil)
	c.Request = req
	p, l := clampPagination(c)
	if p != 1 || l != 100 {
		t.Fatalf("clamp bounds got p=%d l=%d", p, l)
	}
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	req = httptest.NewRequest("GET", "/", nil)
	c.Request = req
	p, l = clampPagination(c)
	if p != 1 || l != 10 {
		t.Fatalf("clamp defaults got p=%d l=%d", p, l)
	}
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	req = httptest.NewRequest("GET", "/?page=&limit=0", nil)
	c.Request = req
	p, l = clampPagination(c)
	if p != 1 || l != 1 {
		t.Fatalf("clamp floor got p=%d l=%d", p, l)
	}
}

// ---------- Analyze ----------

func TestAnalyze_BadJSON_EmptyText_Internal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Bad JSON -> 400
	{
		h := New(stubAuthSvc{}, stubAnalysisSvc{}, stubUserSvc{})
		r := gin.New()
		r.POST("/analysis", asUser("u1"), h.Analyze)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewBufferString("{bad"))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("bad json -> %d", w.Code)
		}
	}

	// Whitespace-only text -> service sentinel -> 400
	{
		svc := stubAnalysisSvc{
			analyze: func(context.Context, string, string) (*domain.AnalysisRecord, error) {
				return nil, services.ErrEmptyText
			},
		}
		h := New(stubAuthSvc{}, svc, stubUserSvc{})
		r := gin.New()
		r.POST("/analysis", asUser("u1"), h.Analyze)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewBufferString(`{"text":"   "}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("empty text -> %d", w.Code)
		}
	}

	// Internal error -> 500 analyze_failed
	{
		svc := stubAnalysisSvc{
			analyze: func(context.Context, string, string) (*domain.AnalysisRecord, error) {
				return nil, gorm.ErrInvalidField
			},
		}
		h := New(stubAuthSvc{}, svc, stubUserSvc{})
		r := gin.New()
		r.POST("/analysis", asUser("u1"), h.Analyze)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewBufferString(`{"text":"x"}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("internal -> %d", w.Code)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeAnalyzeFailed {
			t.Fatalf("unexpected error body: %s", w.Body.String())
		}
	}
}

func TestAnalyze_Success_RuleBased(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	uid := uuid.NewString()
	seedHandlerUser(t, db, uid)

	// nil classifier → rule-based scoring only
	svc := services.NewAnalysisService(db, testAnalysisRepo{}, nil)
	h := New(stubAuthSvc{}, svc, stubUserSvc{})

	r := gin.New()
	r.POST("/analysis", asUser(uid), h.Analyze)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewBufferString(`{"text":"I love this great amazing product"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("analyze -> %d body=%s", w.Code, w.Body.String())
	}
	var out domain.AnalysisRecord
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.UserID != uid || out.Sentiment != "positive" || out.Confidence != 0.8 {
		t.Fatalf("unexpected record: %#v", out)
	}
	if out.ID == "" || out.CreatedAt.IsZero() {
		t.Fatalf("record not stamped: %#v", out)
	}
}

func TestAnalyze_IdempotencyReplayAndStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	uid := uuid.NewString()
	seedHandlerUser(t, db, uid)

	svc := services.NewAnalysisService(db, testAnalysisRepo{}, nil)
	h := New(stubAuthSvc{}, svc, stubUserSvc{})

	r := gin.New()
	// Replicate router wiring: auth → validator (stashes key) → handler.
	r.POST("/analysis",
		asUser(uid),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{Scope: repo.ScopeAnalysis}, nil),
		h.Analyze,
	)

	body := `{"text":"I hate this terrible product"}`
	key := uuid.NewString()

	// First request creates the record and stores the key.
	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewBufferString(body))
	req1.Header.Set(middleware.HeaderIdempotencyKey, key)
	r.ServeHTTP(w1, req1)
	if w1.Code != http.StatusCreated {
		t.Fatalf("first -> %d body=%s", w1.Code, w1.Body.String())
	}
	var first domain.AnalysisRecord
	if err := json.Unmarshal(w1.Body.Bytes(), &first); err != nil {
		t.Fatalf("json: %v", err)
	}

	// Second request with the same key replays the stored record.
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewBufferString(body))
	req2.Header.Set(middleware.HeaderIdempotencyKey, key)
	r.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("replay -> %d body=%s", w2.Code, w2.Body.String())
	}
	if w2.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("missing Idempotency-Replayed header")
	}
	var second domain.AnalysisRecord
	if err := json.Unmarshal(w2.Body.Bytes(), &second); err != nil {
		t.Fatalf("json: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("replay returned different record: %q vs %q", second.ID, first.ID)
	}

	// Only one record persisted.
	var n int64
	db.Model(&domain.AnalysisRecord{}).Where("user_id = ?", uid).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 persisted record, got %d", n)
	}
}

// ---------- History ----------

func TestHistory_ETag304_and_SuccessPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	uid := uuid.NewString()
	seedHandlerUser(t, db, uid)

	svc := services.NewAnalysisService(db, testAnalysisRepo{}, nil)
	h := New(stubAuthSvc{}, svc, stubUserSvc{})

	// Seed two records
	now := time.Now().UTC()
	for i, label := range []string{"positive", "negative"} {
		rec := &domain.AnalysisRecord{
			ID:         uuid.NewString(),
			UserID:     uid,
			Text:       "t",
			Sentiment:  label,
			Confidence: 0.7,
			CreatedAt:  now.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed rec: %v", err)
		}
	}

	r := gin.New()
	r.GET("/analysis/history", asUser(uid), h.History)

	// Compute expected ETag
	count, maxTS, err := repo.AnalysesStats(context.Background(), db, uid)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	etag := fmt.Sprintf(`W/"analyses:%s:%d:%d"`, uid, count, ts)

	// 304 path
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analysis/history", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("etag 304 -> %d", w.Code)
	}

	// 200 success with pagination
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/analysis/history?page=1&limit=1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("history 200 -> %d body=%s", w.Code, w.Body.String())
	}
	var out HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Pagination.Page != 1 || out.Pagination.Limit != 1 || out.Pagination.Total != count {
		t.Fatalf("pagination mismatch: %#v", out.Pagination)
	}
	if out.Pagination.Pages != 2 {
		t.Fatalf("pages mismatch: %#v", out.Pagination)
	}
	if len(out.Analyses) != 1 || out.Analyses[0].Sentiment != "negative" {
		t.Fatalf("expected newest record first, got %#v", out.Analyses)
	}
}

func TestHistory_SkipETagPrecheck_And_ListError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Use the stub service (not *services.AnalysisService) so db==nil → ETag pre-check is skipped.
	svc := stubAnalysisSvc{
		history: func(ctx context.Context, u string, p, l int) ([]domain.AnalysisRecord, int64, error) {
			return nil, 0, gorm.ErrInvalidField
		},
	}
	h := New(stubAuthSvc{}, svc, stubUserSvc{})

	r := gin.New()
	r.GET("/analysis/history", asUser("uX"), h.History)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analysis/history?page=1&limit=5", nil)
	// Provide a bogus If-None-Match to also exercise the inm != "" && inm != etag path
	req.Header.Set("If-None-Match", `W/"nope"`)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on list error; got %d body=%s", w.Code, w.Body.String())
	}
}

func TestHistory_EmptyState_SetsETag_WithZeroTS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	svc := services.NewAnalysisService(db, testAnalysisRepo{}, nil)
	h := New(stubAuthSvc{}, svc, stubUserSvc{})

	r := gin.New()
	r.GET("/analysis/history", asUser("u-empty"), h.History)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analysis/history", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on empty history; got %d body=%s", w.Code, w.Body.String())
	}
	if et := w.Header().Get("ETag"); et != `W/"analyses:u-empty:0:0"` {
		t.Fatalf(`expected ETag W/"analyses:u-empty:0:0", got %q`, et)
	}

	var out HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Pagination.Total != 0 || out.Pagination.Pages != 0 || len(out.Analyses) != 0 {
		t.Fatalf("unexpected pagination: %#v", out.Pagination)
	}
}

// ---------- GetAnalysis ----------

func TestGetAnalysis_UUID_NotFound_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// bad UUID
	{
		h := New(stubAuthSvc{}, stubAnalysisSvc{}, stubUserSvc{})
		r := gin.New()
		r.GET("/analysis/:id", asUser("u1"), h.GetAnalysis)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/analysis/not-uuid", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("uuid 400 -> %d", w.Code)
		}
	}

	// not found -> 404
	{
		h := New(stubAuthSvc{}, stubAnalysisSvc{}, stubUserSvc{})
		r := gin.New()
		r.GET("/analysis/:id", asUser("u1"), h.GetAnalysis)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/analysis/"+uuid.NewString(), nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("not found -> %d", w.Code)
		}
	}

	// success 200 and ownership enforced via real DB
	{
		db := newHandlerDB(t)
		uid := uuid.NewString()
		other := uuid.NewString()
		seedHandlerUser(t, db, uid)
		seedHandlerUser(t, db, other)

		rec := &domain.AnalysisRecord{ID: uuid.NewString(), UserID: uid, Text: "t", Sentiment: "neutral", Confidence: 0.6}
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed rec: %v", err)
		}

		svc := services.NewAnalysisService(db, testAnalysisRepo{}, nil)
		h := New(stubAuthSvc{}, svc, stubUserSvc{})
		r := gin.New()
		r.GET("/analysis/:id", asUser(uid), h.GetAnalysis)
		rOther := gin.New()
		rOther.GET("/analysis/:id", asUser(other), h.GetAnalysis)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/analysis/"+rec.ID, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("get 200 -> %d body=%s", w.Code, w.Body.String())
		}

		// Someone else's record id yields 404, not 403 (no existence leak).
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/analysis/"+rec.ID, nil)
		rOther.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("foreign record -> %d", w.Code)
		}
	}
}
