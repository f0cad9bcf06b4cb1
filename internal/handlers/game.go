package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PandaDev0069/TUIZ-sub003/internal/game"
	"github.com/PandaDev0069/TUIZ-sub003/internal/models"
	"github.com/PandaDev0069/TUIZ-sub003/internal/services"
)

type GameHandler struct {
	sets   *services.QuestionSetService
	engine *game.Engine
	store  game.Store
}

func NewGameHandler(sets *services.QuestionSetService, engine *game.Engine, store game.Store) *GameHandler {
	return &GameHandler{sets: sets, engine: engine, store: store}
}

type CreateGameRequest struct {
	QuestionSetID uint           `json:"question_set_id" binding:"required"`
	Settings      *game.Settings `json:"settings"`
}

// Create materializes a question set into a live lobby. The response
// carries the room code for players and the host key the host uses to
// bind its websocket connection.
func (h *GameHandler) Create(c *gin.Context) {
	hostID := c.GetUint("host_id")
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	set, err := h.sets.GetByID(req.QuestionSetID, hostID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	settings := game.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	created, err := h.engine.CreateSession(hostID, set, settings)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

type GameStateResponse struct {
	Code      string          `json:"code"`
	Status    string          `json:"status"`
	Index     int             `json:"index"`
	Total     int             `json:"total"`
	Players   []string        `json:"players"`
	Standings []game.Standing `json:"standings"`
}

// State is a read-only view of a resident session, mainly for host
// dashboards polling outside the websocket.
func (h *GameHandler) State(c *gin.Context) {
	code := c.Param("code")
	var resp GameStateResponse
	ok := h.engine.Registry().View(code, func(s *game.Session) {
		resp.Code = s.Code
		resp.Status = s.Status
		resp.Index = s.CurrentIndex
		resp.Total = len(s.Questions)
		resp.Standings = game.Rank(s.PlayersInOrder())
		for _, st := range resp.Standings {
			resp.Players = append(resp.Players, st.Name)
		}
	})
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "game not found"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Results serves final results from durable storage, for games no
// longer resident in the registry.
func (h *GameHandler) Results(c *gin.Context) {
	row, err := h.store.FindGameByCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if row == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "game not found"})
		return
	}
	if row.Status != models.GameStatusFinished {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "game not finished"})
		return
	}

	results, err := h.store.ResultsForGame(row.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": row, "results": results})
}
