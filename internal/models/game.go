package models

import "time"

// GameSession represents one timed typing round. The session token is the
// only handle clients ever see; the row id stays internal. UserID is nil for
// anonymous play, ScoreID is nil until the session is finalized.
type GameSession struct {
	ID                int64
	UserID            *int64
	SessionToken      string
	WordsSequence     []string
	Seed              string
	StartTime         time.Time
	ExpectedEndTime   time.Time
	IsCompleted       bool
	ScoreID           *int64
	WordsCorrectCount int
	WordsWrongCount   int
}

// Remaining reports how many words of the sequence have not been checked yet
func (s *GameSession) Remaining() int {
	return len(s.WordsSequence) - s.WordsCorrectCount - s.WordsWrongCount
}

// Score is the immutable result persisted when a session is finalized.
// UserID is nil for anonymous sessions.
type Score struct {
	ID           int64
	UserID       *int64
	Score        int
	WordsCorrect int
	WordsWrong   int
	Duration     int // seconds, clamped to the round length
	CreatedAt    time.Time
}

// OwnerBest is one row of the best-score-per-owner aggregation.
// A nil UserID is the collapsed anonymous bucket.
type OwnerBest struct {
	UserID    *int64
	BestScore int
}

// LeaderboardEntry is one ranked line of the global leaderboard.
// Rank is nil only for the synthetic entry of a viewer without any score.
type LeaderboardEntry struct {
	Rank      *int   `json:"rank"`
	UserID    *int64 `json:"user_id"`
	Username  string `json:"username"`
	BestScore int    `json:"best_score"`
}

// Leaderboard is the ranking response: the full dense-ranked table plus the
// viewer's own entry when an authenticated viewer asked for it.
type Leaderboard struct {
	Ranking     []LeaderboardEntry `json:"ranking"`
	CurrentUser *LeaderboardEntry  `json:"current_user"`
}
