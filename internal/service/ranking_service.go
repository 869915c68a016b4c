package service

import (
	"sort"

	"dactylogame/internal/models"
)

// AnonymousDisplayName is shown for the aggregate bucket of anonymous play
const AnonymousDisplayName = "Unknown"

// ScoreStore is the aggregation contract the ranking engine relies on
type ScoreStore interface {
	BestByOwner() ([]models.OwnerBest, error)
}

// RankingService turns per-owner best scores into the dense-ranked global
// leaderboard. All anonymous sessions compete as one "Unknown" entrant.
type RankingService struct {
	scores ScoreStore
	users  UserStore
}

// NewRankingService creates a new ranking service
func NewRankingService(scores ScoreStore, users UserStore) *RankingService {
	return &RankingService{scores: scores, users: users}
}

// BuildLeaderboard computes the ranked table and, when a viewer is given,
// locates their entry in it. A viewer without any recorded score gets a
// synthetic unranked zero-score entry instead.
func (s *RankingService) BuildLeaderboard(viewerID *int64) (*models.Leaderboard, error) {
	bests, err := s.scores.BestByOwner()
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(bests))
	for _, b := range bests {
		if b.UserID != nil {
			ids = append(ids, *b.UserID)
		}
	}

	names, err := s.users.GetUsernamesByIDs(ids)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(bests))
	var anonymous *models.OwnerBest
	for _, b := range bests {
		if b.UserID == nil {
			anon := b
			anonymous = &anon
			continue
		}
		username, ok := names[*b.UserID]
		if !ok {
			// Owner account was deleted; its scores no longer rank
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			UserID:    b.UserID,
			Username:  username,
			BestScore: b.BestScore,
		})
	}
	if anonymous != nil {
		entries = append(entries, models.LeaderboardEntry{
			Username:  AnonymousDisplayName,
			BestScore: anonymous.BestScore,
		})
	}

	// Stable: entries with equal scores keep their relative order
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].BestScore > entries[j].BestScore
	})

	// Dense ranks: ties share a rank, the next distinct score advances it
	// by exactly one
	rank := 0
	lastScore := 0
	for i := range entries {
		if rank == 0 || entries[i].BestScore != lastScore {
			rank++
			lastScore = entries[i].BestScore
		}
		r := rank
		entries[i].Rank = &r
	}

	leaderboard := &models.Leaderboard{Ranking: entries}

	if viewerID != nil {
		leaderboard.CurrentUser, err = s.viewerEntry(entries, *viewerID)
		if err != nil {
			return nil, err
		}
	}

	return leaderboard, nil
}

// viewerEntry finds the viewer in the ranked entries, or builds the
// synthetic zero-score entry when they have not played yet
func (s *RankingService) viewerEntry(entries []models.LeaderboardEntry, viewerID int64) (*models.LeaderboardEntry, error) {
	for i := range entries {
		if entries[i].UserID != nil && *entries[i].UserID == viewerID {
			entry := entries[i]
			return &entry, nil
		}
	}

	user, err := s.users.GetUserByID(viewerID)
	if err != nil {
		return nil, err
	}

	username := AnonymousDisplayName
	if user != nil {
		username = user.Username
	}

	return &models.LeaderboardEntry{
		UserID:    &viewerID,
		Username:  username,
		BestScore: 0,
	}, nil
}
