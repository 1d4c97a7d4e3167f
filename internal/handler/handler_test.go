package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"

	"github.com/nyx-moment/moment/internal/adjust"
	"github.com/nyx-moment/moment/internal/cachekv"
	"github.com/nyx-moment/moment/internal/catalog"
	"github.com/nyx-moment/moment/internal/embedcache"
	"github.com/nyx-moment/moment/internal/enrich"
	"github.com/nyx-moment/moment/internal/errors"
	"github.com/nyx-moment/moment/internal/flowplanner"
	"github.com/nyx-moment/moment/internal/middleware"
	"github.com/nyx-moment/moment/internal/orchestrator"
	"github.com/nyx-moment/moment/internal/prefmap"
	"github.com/nyx-moment/moment/internal/refine"
	"github.com/nyx-moment/moment/internal/resultcache"
	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/router"
	"github.com/nyx-moment/moment/internal/session"
	"github.com/nyx-moment/moment/internal/surprise"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/nyx-moment/moment/internal/validator"
)

// stubRetriever returns a fixed candidate list regardless of the request,
// mirroring the orchestrator package's own test stub.
type stubRetriever struct {
	candidates []types.Candidate
}

func (s *stubRetriever) Retrieve(_ context.Context, _ retrieval.Request) ([]types.Candidate, error) {
	return s.candidates, nil
}

type stubFetcher struct{}

func (stubFetcher) FetchDetail(_ context.Context, candidateID string) (enrich.Detail, error) {
	return enrich.Detail{Synopsis: "synopsis for " + candidateID}, nil
}

type stubAnalytics struct{}

func (stubAnalytics) Emit(_ context.Context, _ types.AnalyticsEvent) {}

func sampleCandidates(n int) []types.Candidate {
	out := make([]types.Candidate, n)
	for i := 0; i < n; i++ {
		out[i] = types.Candidate{
			ID:              string(rune('a' + i)),
			Title:           "Title " + string(rune('a'+i)),
			GenreTags:       []string{"drama"},
			QualityScore:    7.5,
			PopularityScore: 40,
			VoteCount:       1000,
			RuntimeMinutes:  100,
		}
	}
	return out
}

// newTestEngine builds a full, in-process gin.Engine wired to real
// collaborators (an empty catalog/session store, an in-memory cache, and a
// stub candidate tier), the same fixture shape orchestrator_test.go uses,
// wrapped behind the production router so the middleware chain (including
// ErrorHandler) runs exactly as it would in the server.
func newTestEngine(t *testing.T) (*gin.Engine, *session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalogStore := catalog.NewStore(nil, time.Hour)
	planner := flowplanner.NewPlanner(catalogStore)
	mapper := prefmap.NewMapper(catalogStore)
	sessions := session.NewStore(cachekv.NewMemoryStore(time.Hour), time.Hour)

	embedding := embedcache.New(cachekv.NewMemoryStore(time.Hour), nil)
	results := resultcache.New(cachekv.NewMemoryStore(time.Hour), time.Hour)

	pool, err := ants.NewPool(8)
	if err != nil {
		t.Fatalf("ants.NewPool: %v", err)
	}
	enricher := enrich.New(stubFetcher{}, nil, cachekv.NewMemoryStore(time.Hour), time.Hour, pool)

	rng := rand.New(rand.NewSource(1))
	surpriseEngine := surprise.New(nil, rng)
	validatorEngine := validator.New()
	refineEngine := refine.New()
	adjustEngine := adjust.New()

	var primary retrieval.Retriever = &stubRetriever{candidates: sampleCandidates(12)}

	orch := orchestrator.New(sessions, mapper, embedding, primary, nil, nil, nil, results, enricher, surpriseEngine, validatorEngine, refineEngine, adjustEngine, stubAnalytics{}, rng)

	h := New(catalogStore, planner, sessions, orch, validatorEngine)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	router.RegisterRecommendationRoutes(r, h)
	return r, sessions
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// startSession drives POST /start plus every question in the returned flow
// to completion, returning the session ID and the final (recommendations)
// response body.
func startSession(t *testing.T, r *gin.Engine) (string, map[string]any) {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/start", startRequest{})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /start: status %d, body %s", rec.Code, rec.Body.String())
	}
	var start startResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &start); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	if len(start.SessionID) != 36 {
		t.Errorf("expected a 36-character session ID, got %q (%d chars)", start.SessionID, len(start.SessionID))
	}
	if start.Progress.Current != 1 {
		t.Errorf("expected progress to start at 1, got %d", start.Progress.Current)
	}

	sessionID := start.SessionID
	question := start.Question
	var last map[string]any

	for {
		if len(question.Options) == 0 {
			t.Fatalf("question %q has no options to answer with", question.ID)
		}
		rec := doJSON(t, r, http.MethodPost, "/answer/"+sessionID, answerRequest{
			QuestionID: question.ID,
			Answer:     question.Options[0].ID,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("POST /answer: status %d, body %s", rec.Code, rec.Body.String())
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode answer response: %v", err)
		}
		last = body

		if body["type"] == "recommendations" {
			break
		}

		qRaw, _ := json.Marshal(body["question"])
		var nextQ types.Question
		if err := json.Unmarshal(qRaw, &nextQ); err != nil {
			t.Fatalf("decode next question: %v", err)
		}
		question = nextQ
	}

	return sessionID, last
}

func TestStart_ReturnsSessionAndFirstQuestion(t *testing.T) {
	r, _ := newTestEngine(t)

	rec := doJSON(t, r, http.MethodPost, "/start", startRequest{Domain: "movies"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp startResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.SessionID) != 36 {
		t.Errorf("expected a 36-character session ID, got %q", resp.SessionID)
	}
	if resp.Question.ID == "" {
		t.Error("expected a first question")
	}
	if resp.Progress.Current != 1 || resp.Progress.Total == 0 {
		t.Errorf("unexpected progress: %+v", resp.Progress)
	}
}

func TestStart_UnknownDomainIsValidationError(t *testing.T) {
	r, _ := newTestEngine(t)

	rec := doJSON(t, r, http.MethodPost, "/start", startRequest{Domain: "spreadsheets"})
	assertAppError(t, rec, http.StatusBadRequest, errors.ErrValidation)
}

func TestAnswerFlow_CompletesAndReturnsRecommendations(t *testing.T) {
	r, _ := newTestEngine(t)

	sessionID, last := startSession(t, r)
	if sessionID == "" {
		t.Fatal("expected a session ID")
	}

	recs, ok := last["recommendations"].([]any)
	if !ok || len(recs) == 0 {
		t.Fatalf("expected a non-empty recommendations list, got %v", last["recommendations"])
	}
	if last["canRefine"] != true {
		t.Errorf("expected canRefine=true, got %v", last["canRefine"])
	}
	qa, ok := last["quickAdjustments"].([]any)
	if !ok || len(qa) == 0 {
		t.Error("expected a non-empty quickAdjustments list")
	}
}

func TestAnswer_DuplicateSubmissionIsNoOp(t *testing.T) {
	r, _ := newTestEngine(t)

	rec := doJSON(t, r, http.MethodPost, "/start", startRequest{})
	var start startResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &start)

	first := doJSON(t, r, http.MethodPost, "/answer/"+start.SessionID, answerRequest{
		QuestionID: start.Question.ID,
		Answer:     start.Question.Options[0].ID,
	})
	if first.Code != http.StatusOK {
		t.Fatalf("first answer: status %d, body %s", first.Code, first.Body.String())
	}

	// Resubmitting the same question ID must not error and must not
	// advance progress past where the first answer left it.
	second := doJSON(t, r, http.MethodPost, "/answer/"+start.SessionID, answerRequest{
		QuestionID: start.Question.ID,
		Answer:     start.Question.Options[0].ID,
	})
	if second.Code != http.StatusOK {
		t.Fatalf("duplicate answer: status %d, body %s", second.Code, second.Body.String())
	}

	var firstBody, secondBody map[string]any
	_ = json.Unmarshal(first.Body.Bytes(), &firstBody)
	_ = json.Unmarshal(second.Body.Bytes(), &secondBody)
	if firstBody["progress"] != nil && secondBody["progress"] != nil {
		firstProg, _ := firstBody["progress"].(map[string]any)
		secondProg, _ := secondBody["progress"].(map[string]any)
		if firstProg["current"] != secondProg["current"] {
			t.Errorf("expected duplicate answer to leave progress unchanged: %v vs %v", firstProg, secondProg)
		}
	}
}

func TestAnswer_UnknownSessionIsSessionExpired(t *testing.T) {
	r, _ := newTestEngine(t)

	rec := doJSON(t, r, http.MethodPost, "/answer/does-not-exist", answerRequest{QuestionID: "x", Answer: "y"})
	assertAppError(t, rec, http.StatusUnauthorized, errors.ErrSessionExpired)
}

func TestAnswer_UnknownQuestionIsValidationError(t *testing.T) {
	r, _ := newTestEngine(t)

	rec := doJSON(t, r, http.MethodPost, "/start", startRequest{})
	var start startResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &start)

	resp := doJSON(t, r, http.MethodPost, "/answer/"+start.SessionID, answerRequest{
		QuestionID: "not_a_real_question",
		Answer:     "whatever",
	})
	assertAppError(t, resp, http.StatusBadRequest, errors.ErrValidation)
}

func TestAdjust_UnknownAdjustmentTypeIsValidationError(t *testing.T) {
	r, _ := newTestEngine(t)

	sessionID, _ := startSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/adjust/"+sessionID, adjustRequest{AdjustmentType: "spicier"})
	assertAppError(t, rec, http.StatusBadRequest, errors.ErrValidation)
}

func TestAdjust_KnownAdjustmentTypeAppliesAndReturnsRecommendations(t *testing.T) {
	r, _ := newTestEngine(t)

	sessionID, _ := startSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/adjust/"+sessionID, adjustRequest{AdjustmentType: "shorter"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp adjustResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AdjustmentApplied != "shorter" {
		t.Errorf("expected adjustmentApplied=shorter, got %q", resp.AdjustmentApplied)
	}
	if len(resp.Recommendations) == 0 {
		t.Error("expected a non-empty recommendations list")
	}
}

func TestRefine_QuickAdjustTakesPrecedenceOverFeedback(t *testing.T) {
	r, _ := newTestEngine(t)

	sessionID, _ := startSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/refine/"+sessionID, refineRequest{
		QuickAdjust: "lighter",
		Feedback:    []feedbackItem{{MovieID: "a", Reaction: types.ReactionLike}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp refineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Strategy != "lighter" {
		t.Errorf("expected strategy=lighter (from quickAdjust), got %q", resp.Strategy)
	}
}

func TestRefine_FeedbackDrivenStrategy(t *testing.T) {
	r, _ := newTestEngine(t)

	sessionID, _ := startSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/refine/"+sessionID, refineRequest{
		Feedback: []feedbackItem{
			{MovieID: "a", Reaction: types.ReactionDislike},
			{MovieID: "b", Reaction: types.ReactionDislike},
			{MovieID: "c", Reaction: types.ReactionLike},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp refineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Strategy == "" {
		t.Error("expected a non-empty strategy")
	}
	if len(resp.Recommendations) == 0 {
		t.Error("expected a non-empty recommendations list")
	}
}

func TestInteraction_RecordedAgainstLiveSession(t *testing.T) {
	r, _ := newTestEngine(t)

	sessionID, _ := startSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/interaction/"+sessionID, interactionRequest{
		MovieID:         "a",
		InteractionType: "detail_view",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp interactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
}

func TestInteraction_UnknownSessionIsSessionExpired(t *testing.T) {
	r, _ := newTestEngine(t)

	rec := doJSON(t, r, http.MethodPost, "/interaction/does-not-exist", interactionRequest{
		MovieID:         "a",
		InteractionType: "detail_view",
	})
	assertAppError(t, rec, http.StatusUnauthorized, errors.ErrSessionExpired)
}

func TestMoment_ReturnsSummaryAfterRecommendations(t *testing.T) {
	r, _ := newTestEngine(t)

	sessionID, _ := startSession(t, r)

	rec := doJSON(t, r, http.MethodGet, "/moment/"+sessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var summary types.MomentSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestMoment_BeforeRecommendationsIsNotFound(t *testing.T) {
	r, _ := newTestEngine(t)

	rec := doJSON(t, r, http.MethodPost, "/start", startRequest{})
	var start startResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &start)

	resp := doJSON(t, r, http.MethodGet, "/moment/"+start.SessionID, nil)
	assertAppError(t, resp, http.StatusNotFound, errors.ErrNotFound)
}

func TestDomains_ReturnsSupportedList(t *testing.T) {
	r, _ := newTestEngine(t)

	rec := doJSON(t, r, http.MethodGet, "/domains", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var domains []types.Domain
	if err := json.Unmarshal(rec.Body.Bytes(), &domains); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(domains) == 0 {
		t.Error("expected a non-empty domain list")
	}
}

func assertAppError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode errors.ErrorCode) {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d, got %d (body %s)", wantStatus, rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code errors.ErrorCode `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Success {
		t.Error("expected success=false on an error response")
	}
	if body.Error.Code != wantCode {
		t.Errorf("expected error code %q, got %q", wantCode, body.Error.Code)
	}
}
