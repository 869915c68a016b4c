package handlers

import (
	"errors"
	"net/http"

	"dactylogame/internal/corpus"
	"dactylogame/internal/service"
)

// GameHandler handles the game and leaderboard HTTP endpoints
type GameHandler struct {
	gameService    *service.GameService
	rankingService *service.RankingService
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameService *service.GameService, rankingService *service.RankingService) *GameHandler {
	return &GameHandler{
		gameService:    gameService,
		rankingService: rankingService,
	}
}

type startGameResponse struct {
	SessionID         string   `json:"session_id"`
	Texte             []string `json:"texte"`
	UserAuthenticated bool     `json:"user_authenticated"`
}

type checkWordRequest struct {
	SessionID string `json:"session_id"`
	Word      string `json:"word"`
	Index     int    `json:"index"`
}

type checkWordResponse struct {
	Correct bool `json:"correct"`
	Index   int  `json:"index"`
}

type endGameRequest struct {
	SessionID string `json:"session_id"`
}

type endGameResponse struct {
	Score        int `json:"score"`
	WordsCorrect int `json:"words_correct"`
	WordsWrong   int `json:"words_wrong"`
	Duration     int `json:"duration"`
}

// StartGame creates a new session and returns the text to type.
// Works with or without authentication.
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	var ownerID *int64
	if user := GetUserFromContext(r.Context()); user != nil {
		ownerID = &user.ID
	}

	session, err := h.gameService.StartGame(ownerID)
	if err != nil {
		if errors.Is(err, corpus.ErrCorpusUnavailable) {
			respondWithError(w, http.StatusInternalServerError, "Word corpus unavailable", "", err)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to start game", err)
		return
	}

	respondWithJSON(w, http.StatusOK, startGameResponse{
		SessionID:         session.SessionToken,
		Texte:             session.WordsSequence,
		UserAuthenticated: ownerID != nil,
	})
}

// CheckWord verifies one typed word against the session's sequence
func (h *GameHandler) CheckWord(w http.ResponseWriter, r *http.Request) {
	var req checkWordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	correct, next, err := h.gameService.CheckWord(req.SessionID, req.Word, req.Index)
	if err != nil {
		h.respondGameError(w, err, "Word check failed")
		return
	}

	respondWithJSON(w, http.StatusOK, checkWordResponse{Correct: correct, Index: next})
}

// EndGame finalizes the session and returns the persisted score summary
func (h *GameHandler) EndGame(w http.ResponseWriter, r *http.Request) {
	var req endGameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	score, err := h.gameService.EndGame(req.SessionID)
	if err != nil {
		h.respondGameError(w, err, "Game finalization failed")
		return
	}

	respondWithJSON(w, http.StatusOK, endGameResponse{
		Score:        score.Score,
		WordsCorrect: score.WordsCorrect,
		WordsWrong:   score.WordsWrong,
		Duration:     score.Duration,
	})
}

// Ranking returns the global leaderboard and the viewer's position in it
func (h *GameHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	var viewerID *int64
	if user := GetUserFromContext(r.Context()); user != nil {
		viewerID = &user.ID
	}

	leaderboard, err := h.rankingService.BuildLeaderboard(viewerID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to build leaderboard", err)
		return
	}

	respondWithJSON(w, http.StatusOK, leaderboard)
}

// respondGameError maps the game engine's error taxonomy onto status codes
func (h *GameHandler) respondGameError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondWithError(w, http.StatusNotFound, "Session not found", "", nil)
	case errors.Is(err, service.ErrSessionCompleted):
		respondWithError(w, http.StatusBadRequest, "Session already completed", "", nil)
	case errors.Is(err, service.ErrIndexOutOfRange):
		respondWithError(w, http.StatusBadRequest, "Index out of range", "", nil)
	case errors.Is(err, service.ErrSequenceExhausted):
		respondWithError(w, http.StatusBadRequest, "All words already checked", "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error", logMsg, err)
	}
}
