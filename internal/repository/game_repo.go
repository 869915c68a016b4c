package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"dactylogame/internal/database"
	"dactylogame/internal/models"
)

// GameRepository handles database operations for game sessions and the
// scores they produce at finalization
type GameRepository struct {
	db *database.DB
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{db: db}
}

const sessionColumns = `id, user_id, session_token, words_sequence, seed,
	start_time, expected_end_time, is_completed, score_id,
	words_correct_count, words_wrong_count`

// CreateSession persists a new active session and fills in its row id
func (r *GameRepository) CreateSession(session *models.GameSession) error {
	words, err := json.Marshal(session.WordsSequence)
	if err != nil {
		return fmt.Errorf("failed to encode words sequence: %w", err)
	}

	query := `
		INSERT INTO game_sessions
			(user_id, session_token, words_sequence, seed, start_time, expected_end_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		nullableID(session.UserID),
		session.SessionToken,
		string(words),
		session.Seed,
		session.StartTime,
		session.ExpectedEndTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create game session: %w", err)
	}

	session.ID = id
	return nil
}

// GetSessionByToken retrieves a session by its opaque token.
// Returns (nil, nil) when no session matches.
func (r *GameRepository) GetSessionByToken(token string) (*models.GameSession, error) {
	query := "SELECT " + sessionColumns + " FROM game_sessions WHERE session_token = ?"
	return scanSession(r.db.QueryRow(query, token))
}

func scanSession(row *sql.Row) (*models.GameSession, error) {
	session := &models.GameSession{}
	var userID, scoreID sql.NullInt64
	var words string

	err := row.Scan(
		&session.ID,
		&userID,
		&session.SessionToken,
		&words,
		&session.Seed,
		&session.StartTime,
		&session.ExpectedEndTime,
		&session.IsCompleted,
		&scoreID,
		&session.WordsCorrectCount,
		&session.WordsWrongCount,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game session: %w", err)
	}

	if userID.Valid {
		session.UserID = &userID.Int64
	}
	if scoreID.Valid {
		session.ScoreID = &scoreID.Int64
	}
	if err := json.Unmarshal([]byte(words), &session.WordsSequence); err != nil {
		return nil, fmt.Errorf("failed to decode words sequence: %w", err)
	}

	return session, nil
}

// IncrementWordCount bumps the correct or wrong counter for a session as a
// single conditional update, so concurrent checks on the same token cannot
// lose increments and a finalized session cannot be mutated. The update also
// requires the counter total to stay below limit (the sequence length), so
// replayed checks cannot push the tally past the number of words a session
// actually holds. Returns false when the condition did not hold: the session
// is completed, its word slots are used up, or it was deleted meanwhile.
func (r *GameRepository) IncrementWordCount(token string, correct bool, limit int) (bool, error) {
	column := "words_wrong_count"
	if correct {
		column = "words_correct_count"
	}

	query := fmt.Sprintf(`
		UPDATE game_sessions
		SET %s = %s + 1
		WHERE session_token = ? AND is_completed = ?
		  AND words_correct_count + words_wrong_count < ?
	`, column, column)

	var applied bool
	err := database.WithRetry(func() error {
		result, err := r.db.Exec(query, token, false, limit)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		applied = rows > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to increment word count: %w", err)
	}

	return applied, nil
}

// FinalizeSession completes a session exactly once. Inside one transaction it
// claims the session with a conditional completed flip, re-reads the counters,
// inserts the Score produced by build and links it back to the session. The
// claimed result is false when another finalization already won; in that case
// nothing is written. A failed insert rolls the claim back, so a Score row
// without a completed session is never observable.
func (r *GameRepository) FinalizeSession(token string, build func(*models.GameSession) *models.Score) (*models.Score, bool, error) {
	var score *models.Score
	var claimed bool

	err := database.WithRetry(func() error {
		score, claimed = nil, false

		tx, err := r.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		result, err := tx.Exec(`
			UPDATE game_sessions
			SET is_completed = ?
			WHERE session_token = ? AND is_completed = ?
		`, true, token, false)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		session := &models.GameSession{}
		var userID sql.NullInt64
		var words string
		err = tx.QueryRow(`
			SELECT id, user_id, words_sequence, seed, start_time,
			       words_correct_count, words_wrong_count
			FROM game_sessions
			WHERE session_token = ?
		`, token).Scan(
			&session.ID,
			&userID,
			&words,
			&session.Seed,
			&session.StartTime,
			&session.WordsCorrectCount,
			&session.WordsWrongCount,
		)
		if err != nil {
			return err
		}
		if userID.Valid {
			session.UserID = &userID.Int64
		}
		if err := json.Unmarshal([]byte(words), &session.WordsSequence); err != nil {
			return err
		}
		session.SessionToken = token

		s := build(session)
		s.CreatedAt = time.Now()

		scoreID, err := tx.ExecReturningID(`
			INSERT INTO scores (user_id, score, words_correct, words_wrong, duration, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, nullableID(s.UserID), s.Score, s.WordsCorrect, s.WordsWrong, s.Duration, s.CreatedAt)
		if err != nil {
			return err
		}
		s.ID = scoreID

		if _, err := tx.Exec(`
			UPDATE game_sessions SET score_id = ? WHERE id = ?
		`, scoreID, session.ID); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}

		score, claimed = s, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to finalize session: %w", err)
	}

	return score, claimed, nil
}

// DeleteStaleSessions removes unfinished sessions that started before cutoff
func (r *GameRepository) DeleteStaleSessions(cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM game_sessions
		WHERE is_completed = ? AND start_time < ?
	`
	result, err := r.db.Exec(query, false, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	return result.RowsAffected()
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
