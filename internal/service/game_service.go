package service

import (
	"errors"
	"fmt"
	"time"

	"dactylogame/internal/corpus"
	"dactylogame/internal/models"
	"dactylogame/internal/security"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionCompleted  = errors.New("session already completed")
	ErrIndexOutOfRange   = errors.New("word index out of range")
	ErrSequenceExhausted = errors.New("all words already checked")
)

// GameStore is the persistence contract the game engine relies on. The
// increment and finalize operations must be atomic against concurrent calls
// on the same token; the repository implements them as conditional updates.
type GameStore interface {
	CreateSession(session *models.GameSession) error
	GetSessionByToken(token string) (*models.GameSession, error)
	IncrementWordCount(token string, correct bool, limit int) (bool, error)
	FinalizeSession(token string, build func(*models.GameSession) *models.Score) (*models.Score, bool, error)
}

// GameService owns the session lifecycle: creation, server-side word
// verification and exactly-once finalization into a Score.
type GameService struct {
	store  GameStore
	corpus *corpus.Source

	roundDuration time.Duration
	tolerance     time.Duration
	wordCountMin  int
	wordCountMax  int
}

// NewGameService creates a new game service
func NewGameService(store GameStore, src *corpus.Source, roundDuration, tolerance time.Duration, wordCountMin, wordCountMax int) *GameService {
	return &GameService{
		store:         store,
		corpus:        src,
		roundDuration: roundDuration,
		tolerance:     tolerance,
		wordCountMin:  wordCountMin,
		wordCountMax:  wordCountMax,
	}
}

// StartGame creates a new active session for an optional owner and returns
// it with its word sequence. The sequence is derived from a stored seed so
// it can be regenerated without trusting anything the client sends back.
func (s *GameService) StartGame(ownerID *int64) (*models.GameSession, error) {
	count := corpus.SequenceLength(s.wordCountMin, s.wordCountMax)
	seed := corpus.NewSeed()

	words, err := s.corpus.Generate(count, seed)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.GameSession{
		UserID:          ownerID,
		SessionToken:    security.GenerateSessionToken(),
		WordsSequence:   words,
		Seed:            seed,
		StartTime:       now,
		ExpectedEndTime: now.Add(s.roundDuration),
	}

	if err := s.store.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return session, nil
}

// CheckWord verifies one typed word against the session's sequence and
// increments the matching counter server-side, inside this call. The tally
// is never reconstructed from anything client-supplied at finalization, and
// it can never exceed the sequence length: once every word slot has been
// used, further checks fail with ErrSequenceExhausted instead of inflating
// the counters. Returns whether the word matched and the next index to ask for.
func (s *GameService) CheckWord(token, word string, index int) (bool, int, error) {
	session, err := s.store.GetSessionByToken(token)
	if err != nil {
		return false, 0, err
	}
	if session == nil {
		return false, 0, ErrSessionNotFound
	}
	if session.IsCompleted {
		return false, 0, ErrSessionCompleted
	}
	if index < 0 || index >= len(session.WordsSequence) {
		return false, 0, ErrIndexOutOfRange
	}
	if session.Remaining() <= 0 {
		return false, 0, ErrSequenceExhausted
	}

	correct := word == session.WordsSequence[index]

	applied, err := s.store.IncrementWordCount(token, correct, len(session.WordsSequence))
	if err != nil {
		return false, 0, err
	}
	if !applied {
		// Between our read and the increment either a finalization flipped
		// the session or concurrent checks used up the last slots; the
		// counter was left untouched. Re-read to tell the cases apart.
		current, err := s.store.GetSessionByToken(token)
		if err != nil {
			return false, 0, err
		}
		switch {
		case current == nil:
			return false, 0, ErrSessionNotFound
		case current.IsCompleted:
			return false, 0, ErrSessionCompleted
		default:
			return false, 0, ErrSequenceExhausted
		}
	}

	return correct, index + 1, nil
}

// EndGame finalizes a session exactly once, producing its immutable Score.
// The score is the server-maintained correct counter; elapsed time beyond
// the round length plus tolerance is clamped to the round length. A second
// call on the same token fails with ErrSessionCompleted.
func (s *GameService) EndGame(token string) (*models.Score, error) {
	session, err := s.store.GetSessionByToken(token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}

	score, claimed, err := s.store.FinalizeSession(token, s.buildScore)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrSessionCompleted
	}

	return score, nil
}

// buildScore derives the Score from the session as read inside the
// finalization transaction, after the completed flag was claimed.
func (s *GameService) buildScore(session *models.GameSession) *models.Score {
	duration := int(time.Since(session.StartTime).Seconds())
	if duration > int((s.roundDuration + s.tolerance).Seconds()) {
		duration = int(s.roundDuration.Seconds())
	}

	return &models.Score{
		UserID:       session.UserID,
		Score:        session.WordsCorrectCount,
		WordsCorrect: session.WordsCorrectCount,
		WordsWrong:   session.WordsWrongCount,
		Duration:     duration,
	}
}
