package repository

import (
	"database/sql"
	"fmt"

	"dactylogame/internal/database"
	"dactylogame/internal/models"
)

// ScoreRepository handles read-side queries over the append-only scores
// table. It only needs the DBTX query surface, so it works the same inside
// a transaction.
type ScoreRepository struct {
	db database.DBTX
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db database.DBTX) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// BestByOwner returns the best score per owner. Anonymous scores (NULL
// user_id) collapse into a single row, so anonymous players compete as one
// aggregate entrant.
func (r *ScoreRepository) BestByOwner() ([]models.OwnerBest, error) {
	query := `
		SELECT user_id, MAX(score)
		FROM scores
		GROUP BY user_id
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query best scores: %w", err)
	}
	defer rows.Close()

	var bests []models.OwnerBest
	for rows.Next() {
		var userID sql.NullInt64
		var best models.OwnerBest
		if err := rows.Scan(&userID, &best.BestScore); err != nil {
			return nil, fmt.Errorf("failed to scan best score: %w", err)
		}
		if userID.Valid {
			best.UserID = &userID.Int64
		}
		bests = append(bests, best)
	}

	return bests, rows.Err()
}
