package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettearl18/checkin-v5-sub001/internal/cache"
	"github.com/brettearl18/checkin-v5-sub001/internal/checkin"
	"github.com/brettearl18/checkin-v5-sub001/internal/database"
	"github.com/brettearl18/checkin-v5-sub001/internal/errors"
	"github.com/brettearl18/checkin-v5-sub001/internal/monitoring"
)

// setupRouter wires the core routes against a throwaway database, without
// the middleware stack.
func setupRouter(t *testing.T) (*gin.Engine, *database.Repository) {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)

	r := gin.New()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/clients/:id/checkins", func(c *gin.Context) {
		clientID := c.Param("id")

		var req struct {
			FormID       string           `json:"formId"`
			AssignmentID string           `json:"assignmentId"`
			SubmittedAt  *time.Time       `json:"submittedAt"`
			Responses    []checkin.Answer `json:"responses"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		form, err := repo.GetForm(req.FormID)
		if err != nil {
			appErr := errors.ToAppError(err)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		if missing := checkin.MissingRequired(form.Questions, req.Responses); len(missing) > 0 {
			appErr := errors.NewMissingAnswersError(missing)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		scored := checkin.Aggregate(form.Questions, req.Responses)

		submittedAt := time.Now().UTC()
		if req.SubmittedAt != nil {
			submittedAt = req.SubmittedAt.UTC()
		}

		record, err := repo.CreateSubmission(clientID, req.FormID, req.AssignmentID, scored, submittedAt)
		if err != nil {
			appErr := errors.ToAppError(err)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": record.ID, "score": scored.Score})
	})

	r.GET("/api/clients/:id/timeline", func(c *gin.Context) {
		subs, err := repo.ListSubmissions(c.Param("id"))
		if err != nil {
			appErr := errors.ToAppError(err)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		deduped := checkin.DedupeSubmissions(subs)
		c.JSON(http.StatusOK, gin.H{
			"weeks":     len(deduped),
			"questions": checkin.BuildTimeline(deduped),
		})
	})

	return r, repo
}

func fixtureForm(t *testing.T, repo *database.Repository) (*database.Client, *database.CheckinForm) {
	t.Helper()

	coach, err := repo.GetOrCreateCoach("coach@example.com", "Coach")
	require.NoError(t, err)

	client, err := repo.CreateClient(coach.ID, "Sarah", "sarah@example.com")
	require.NoError(t, err)

	weight := 10.0
	required := true
	optional := false
	form, err := repo.CreateForm(coach.ID, "Weekly check-in", []checkin.Question{
		{ID: "energy", Text: "How is your energy?", Type: checkin.TypeScale, QuestionWeight: &weight, Required: &required},
		{ID: "notes", Text: "Anything else?", Type: checkin.TypeTextarea, Required: &optional},
	})
	require.NoError(t, err)

	return client, form
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCheckinSubmission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, repo := setupRouter(t)
	client, form := fixtureForm(t, repo)

	body, _ := json.Marshal(map[string]any{
		"formId": form.ID,
		"responses": []map[string]any{
			{"questionId": "energy", "answer": 8},
			{"questionId": "notes", "answer": "all good"},
		},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/clients/"+client.ID+"/checkins", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID    string `json:"id"`
		Score int    `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 80, resp.Score)
}

func TestCheckinMissingRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, repo := setupRouter(t)
	client, form := fixtureForm(t, repo)

	body, _ := json.Marshal(map[string]any{
		"formId": form.ID,
		"responses": []map[string]any{
			{"questionId": "notes", "answer": "skipped the scale"},
		},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/clients/"+client.ID+"/checkins", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "required")
}

func TestCheckinUnknownForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, repo := setupRouter(t)
	client, _ := fixtureForm(t, repo)

	body, _ := json.Marshal(map[string]any{
		"formId":    "does-not-exist",
		"responses": []map[string]any{},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/clients/"+client.ID+"/checkins", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimelineAcrossWeeks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, repo := setupRouter(t)
	client, form := fixtureForm(t, repo)

	submit := func(week int, energy int) {
		submittedAt := time.Date(2026, 1, 5+7*(week-1), 9, 0, 0, 0, time.UTC)
		body, _ := json.Marshal(map[string]any{
			"formId":      form.ID,
			"submittedAt": submittedAt,
			"responses": []map[string]any{
				{"questionId": "energy", "answer": energy},
			},
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/clients/"+client.ID+"/checkins", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	submit(1, 4)
	submit(2, 6)
	submit(3, 9)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/clients/"+client.ID+"/timeline", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Weeks     int                     `json:"weeks"`
		Questions []checkin.QuestionTrack `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 3, resp.Weeks)
	require.Len(t, resp.Questions, 1)

	track := resp.Questions[0]
	assert.Equal(t, "energy", track.QuestionID)
	require.Len(t, track.Weeks, 3)
	assert.Equal(t, checkin.StatusOrange, track.Weeks[0].Status)
	assert.Equal(t, checkin.StatusOrange, track.Weeks[1].Status)
	assert.Equal(t, checkin.StatusGreen, track.Weeks[2].Status)
	assert.True(t, track.IsActive)
}

// setupAuthRouter wires the coach-facing read path with the real auth and
// response-cache middleware, as main registers them.
func setupAuthRouter(t *testing.T) (*gin.Engine, *database.Repository, *database.CoachService) {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	svc := database.NewCoachService(repo, "test-secret")

	metrics := monitoring.NewMetrics()
	appCache := cache.NewCache(time.Minute)

	r := gin.New()
	authorized := r.Group("/api", authRequired(svc))
	authorized.Use(appCache.Middleware(metrics))

	authorized.GET("/clients/:id", func(c *gin.Context) {
		client, ok := clientForCoach(c, repo)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, client)
	})

	authorized.GET("/forms/:id", func(c *gin.Context) {
		form, ok := formForCoach(c, repo)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, form)
	})

	return r, repo, svc
}

func authGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestClientReadsRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, repo, svc := setupAuthRouter(t)

	coach, token, err := svc.Login("owner@example.com", "Owner")
	require.NoError(t, err)
	client, err := repo.CreateClient(coach.ID, "Sarah", "")
	require.NoError(t, err)

	// Authenticated read succeeds and warms the response cache
	w := authGet(r, "/api/clients/"+client.ID, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sarah")

	// The same URI without a token is still rejected
	w = authGet(r, "/api/clients/"+client.ID, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "Sarah")
}

func TestClientReadsScopedToOwningCoach(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, repo, svc := setupAuthRouter(t)

	owner, ownerToken, err := svc.Login("owner@example.com", "Owner")
	require.NoError(t, err)
	_, otherToken, err := svc.Login("other@example.com", "Other")
	require.NoError(t, err)

	client, err := repo.CreateClient(owner.ID, "Sarah", "")
	require.NoError(t, err)

	// Owner read first so a cached entry exists for this URI
	w := authGet(r, "/api/clients/"+client.ID, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)

	// Another coach gets a 404, not the owner's cached record
	w = authGet(r, "/api/clients/"+client.ID, otherToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "Sarah")
}

func TestFormReadsScopedToOwningCoach(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, repo, svc := setupAuthRouter(t)

	owner, ownerToken, err := svc.Login("owner@example.com", "Owner")
	require.NoError(t, err)
	_, otherToken, err := svc.Login("other@example.com", "Other")
	require.NoError(t, err)

	form, err := repo.CreateForm(owner.ID, "Weekly check-in", []checkin.Question{
		{ID: "energy", Text: "How is your energy?", Type: checkin.TypeScale},
	})
	require.NoError(t, err)

	w := authGet(r, "/api/forms/"+form.ID, ownerToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = authGet(r, "/api/forms/"+form.ID, otherToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCoachSessionTokens(t *testing.T) {
	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	svc := database.NewCoachService(repo, "test-secret")

	coach, token, err := svc.Login("coach@example.com", "Coach")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	coachID, err := svc.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, coach.ID, coachID)

	_, err = svc.ValidateSessionToken("not-a-token")
	assert.Error(t, err)
}
