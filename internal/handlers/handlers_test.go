package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dactylogame/internal/corpus"
	"dactylogame/internal/models"
	"dactylogame/internal/security"
	"dactylogame/internal/service"
)

var testSequence = []string{"maison", "soleil", "jardin"}

// memGameStore is an in-memory service.GameStore for handler tests
type memGameStore struct {
	nextID   int64
	sessions map[string]*models.GameSession
	scores   []*models.Score
}

func newMemGameStore() *memGameStore {
	return &memGameStore{sessions: make(map[string]*models.GameSession)}
}

func (m *memGameStore) CreateSession(session *models.GameSession) error {
	m.nextID++
	session.ID = m.nextID
	stored := *session
	m.sessions[session.SessionToken] = &stored
	return nil
}

func (m *memGameStore) GetSessionByToken(token string) (*models.GameSession, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (m *memGameStore) IncrementWordCount(token string, correct bool, limit int) (bool, error) {
	s, ok := m.sessions[token]
	if !ok || s.IsCompleted || s.WordsCorrectCount+s.WordsWrongCount >= limit {
		return false, nil
	}
	if correct {
		s.WordsCorrectCount++
	} else {
		s.WordsWrongCount++
	}
	return true, nil
}

func (m *memGameStore) FinalizeSession(token string, build func(*models.GameSession) *models.Score) (*models.Score, bool, error) {
	s, ok := m.sessions[token]
	if !ok || s.IsCompleted {
		return nil, false, nil
	}
	s.IsCompleted = true

	score := build(s)
	m.nextID++
	score.ID = m.nextID
	m.scores = append(m.scores, score)
	s.ScoreID = &score.ID
	return score, true, nil
}

// memUserStore is an in-memory service.UserStore for handler tests
type memUserStore struct {
	nextID int64
	users  map[int64]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]*models.User)}
}

func (m *memUserStore) CreateUser(username, email, passwordHash string) (*models.User, error) {
	m.nextID++
	user := &models.User{
		ID:           m.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	out := *user
	return &out, nil
}

func (m *memUserStore) GetUserByID(id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (m *memUserStore) GetUserByUsername(username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) GetUsernamesByIDs(ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			names[id] = u.Username
		}
	}
	return names, nil
}

// memScoreStore returns a fixed aggregation for ranking tests
type memScoreStore struct {
	bests []models.OwnerBest
}

func (m *memScoreStore) BestByOwner() ([]models.OwnerBest, error) {
	return m.bests, nil
}

type testEnv struct {
	mux    *http.ServeMux
	games  *memGameStore
	users  *memUserStore
	scores *memScoreStore
	auth   *service.AuthService
}

// newTestEnv wires the full handler stack over in-memory stores, with the
// same routes the server registers
func newTestEnv() *testEnv {
	games := newMemGameStore()
	users := newMemUserStore()
	scores := &memScoreStore{}

	authService := service.NewAuthService(users, "test-secret", time.Hour)
	gameService := service.NewGameService(games, corpus.NewStaticSource(testSequence),
		30*time.Second, 5*time.Second, len(testSequence), len(testSequence))
	rankingService := service.NewRankingService(scores, users)

	authHandler := NewAuthHandler(authService)
	gameHandler := NewGameHandler(gameService, rankingService)
	mw := NewMiddleware(authService, security.NewRateLimiter(1000, time.Minute))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", mw.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", mw.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /api/auth/me", mw.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/start-game", mw.OptionalAuth(gameHandler.StartGame))
	mux.HandleFunc("POST /api/check-word", gameHandler.CheckWord)
	mux.HandleFunc("POST /api/end-game", gameHandler.EndGame)
	mux.HandleFunc("GET /api/ranking", mw.OptionalAuth(gameHandler.Ranking))

	return &testEnv{mux: mux, games: games, users: users, scores: scores, auth: authService}
}

// do runs one request through the mux with an optional JSON body and bearer token
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}
