package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PandaDev0069/TUIZ-sub003/internal/services"
)

type QuestionSetHandler struct {
	sets *services.QuestionSetService
}

func NewQuestionSetHandler(sets *services.QuestionSetService) *QuestionSetHandler {
	return &QuestionSetHandler{sets: sets}
}

func (h *QuestionSetHandler) List(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sets, err := h.sets.ListByHost(hostID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sets)
}

func (h *QuestionSetHandler) Get(c *gin.Context) {
	hostID := c.GetUint("host_id")
	setID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}

	set, err := h.sets.GetByID(uint(setID), hostID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *QuestionSetHandler) Create(c *gin.Context) {
	hostID := c.GetUint("host_id")
	var input services.QuestionSetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	set, err := h.sets.Create(hostID, input)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, set)
}

func (h *QuestionSetHandler) Update(c *gin.Context) {
	hostID := c.GetUint("host_id")
	setID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}

	var input services.QuestionSetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	set, err := h.sets.Update(uint(setID), hostID, input)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *QuestionSetHandler) Delete(c *gin.Context) {
	hostID := c.GetUint("host_id")
	setID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}

	if err := h.sets.Delete(uint(setID), hostID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "question set deleted"})
}
