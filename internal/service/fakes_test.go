package service

import (
	"strings"
	"sync"
	"time"

	"dactylogame/internal/models"
)

func ptr(v int64) *int64 {
	return &v
}

// fakeGameStore is an in-memory GameStore. It mirrors the repository's
// atomicity contract: increments and finalization are conditional on the
// completed flag, under one mutex.
type fakeGameStore struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[string]*models.GameSession
	scores   []*models.Score
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{sessions: make(map[string]*models.GameSession)}
}

func (f *fakeGameStore) CreateSession(session *models.GameSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	session.ID = f.nextID
	stored := *session
	f.sessions[session.SessionToken] = &stored
	return nil
}

func (f *fakeGameStore) GetSessionByToken(token string) (*models.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[token]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (f *fakeGameStore) IncrementWordCount(token string, correct bool, limit int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[token]
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

func (f *fakeGameStore) FinalizeSession(token string, build func(*models.GameSession) *models.Score) (*models.Score, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[token]
	if !ok || s.IsCompleted {
		return nil, false, nil
	}
	s.IsCompleted = true

	score := build(s)
	f.nextID++
	score.ID = f.nextID
	score.CreatedAt = time.Now()
	f.scores = append(f.scores, score)
	s.ScoreID = &score.ID

	return score, true, nil
}

// backdate shifts a stored session's start time into the past
func (f *fakeGameStore) backdate(token string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.sessions[token]; ok {
		s.StartTime = s.StartTime.Add(-d)
	}
}

// fakeScoreStore returns a fixed best-score-per-owner aggregation
type fakeScoreStore struct {
	bests []models.OwnerBest
}

func (f *fakeScoreStore) BestByOwner() ([]models.OwnerBest, error) {
	return f.bests, nil
}

// fakeUserStore is an in-memory UserStore
type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User)}
}

func (f *fakeUserStore) CreateUser(username, email, passwordHash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	user := &models.User{
		ID:           f.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.users[user.ID] = user
	out := *user
	return &out, nil
}

func (f *fakeUserStore) GetUserByID(id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (f *fakeUserStore) GetUserByUsername(username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetUserByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetUsernamesByIDs(ids []int64) (map[int64]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			names[id] = u.Username
		}
	}
	return names, nil
}

// addUser seeds an account directly, bypassing registration
func (f *fakeUserStore) addUser(username string) *models.User {
	user, _ := f.CreateUser(username, username+"@example.com", "x")
	return user
}
