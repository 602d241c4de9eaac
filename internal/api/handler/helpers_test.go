package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studybuddy/backend/internal/api/handler"
	"studybuddy/backend/internal/auth"
	"studybuddy/backend/internal/chathub"
	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/session"
	"studybuddy/backend/internal/storage"
	"studybuddy/backend/internal/storage/storagetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiFixture struct {
	router *gin.Engine
	db     *gorm.DB
	store  *storage.Service
	hub    *chathub.ManagerService
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := storagetest.NewDB(t)
	store := storage.NewStorageService(db)
	hub := chathub.NewManagerService(store, chathub.NewLocalRelay(64))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	tokens := auth.NewTokenIssuer(config.AuthConfig{
		JWTSecret: "handler-test-secret",
		JWTExpiry: time.Hour,
		Issuer:    "studybuddy-test",
	})
	h := handler.NewHandler(session.NewManager(store, hub), hub, auth.NewService(store, tokens), store)
	router := handler.NewRouter(h, tokens, config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}})

	return &apiFixture{router: router, db: db, store: store, hub: hub}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type registered struct {
	Token string `json:"token"`
	User  struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

func (f *apiFixture) register(t *testing.T, name string) registered {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     name,
		"email":    name + "@campus.edu",
		"password": "password123",
		"program":  "Computer Science",
		"year":     2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out registered
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type sessionBody struct {
	ID               uint              `json:"id"`
	CourseCode       string            `json:"courseCode"`
	Topics           string            `json:"topics"`
	CreatorID        uint              `json:"creatorId"`
	MaxParticipants  *int              `json:"maxParticipants"`
	MeetingLink      *string           `json:"meetingLink"`
	Creator          participantBody   `json:"creator"`
	Participants     []participantBody `json:"participants"`
	ParticipantCount int               `json:"participantCount"`
	Status           string            `json:"status"`
}

type participantBody struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (f *apiFixture) createSession(t *testing.T, token string, extra map[string]any) sessionBody {
	t.Helper()
	start := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	body := map[string]any{
		"courseCode": "CS101",
		"location":   "Library Room 2",
		"startTime":  start.Format(time.RFC3339),
		"endTime":    start.Add(2 * time.Hour).Format(time.RFC3339),
		"topics":     "graphs",
	}
	for k, v := range extra {
		body[k] = v
	}

	w := f.do(t, http.MethodPost, "/api/sessions", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[sessionBody](t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func sessionPath(id uint, suffix string) string {
	return fmt.Sprintf("/api/sessions/%d%s", id, suffix)
}
