package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/pagination"
	"fintrack/internal/patch"
	"fintrack/internal/services"
)

// GoalHandler handles savings-goal requests.
type GoalHandler struct {
	goalService services.GoalServicer
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService services.GoalServicer) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// CreateGoalRequest is the payload for creating a savings goal.
type CreateGoalRequest struct {
	AccountID    string  `json:"account_id" binding:"required,uuid"`
	Name         string  `json:"name" binding:"required,max=100"`
	TargetAmount int64   `json:"target_amount" binding:"required,gt=0"`
	TargetDate   *string `json:"target_date"`
}

// CreateGoal handles POST /goals.
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	input := services.GoalInput{
		AccountID:    req.AccountID,
		Name:         req.Name,
		TargetAmount: money.Amount(req.TargetAmount),
	}
	if req.TargetDate != nil {
		targetDate, err := parseFlexibleTime(*req.TargetDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
			return
		}
		input.TargetDate = &targetDate
	}

	goal, err := h.goalService.CreateGoal(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// GetGoals handles GET /goals with an optional status filter.
func (h *GoalHandler) GetGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	var status *models.GoalStatus
	if v := c.Query("status"); v != "" {
		parsed := models.GoalStatus(v)
		if !parsed.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "invalid goal status"))
			return
		}
		status = &parsed
	}

	goals, err := h.goalService.GetUserGoals(userID, page, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

// GetGoal handles GET /goals/:id.
func (h *GoalHandler) GetGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.GetGoalByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// UpdateGoalRequest is the payload for a partial goal update. An
// explicit null target_date clears the deadline.
type UpdateGoalRequest struct {
	Name         *string                `json:"name" binding:"omitempty,max=100"`
	TargetAmount *int64                 `json:"target_amount" binding:"omitempty,gt=0"`
	TargetDate   patch.Field[time.Time] `json:"target_date"`
}

// UpdateGoal handles PUT /goals/:id.
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	fields := services.GoalPatch{
		Name:       req.Name,
		TargetDate: req.TargetDate,
	}
	if req.TargetAmount != nil {
		target := money.Amount(*req.TargetAmount)
		fields.TargetAmount = &target
	}

	goal, err := h.goalService.UpdateGoal(userID, c.Param("id"), fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// DeleteGoal handles DELETE /goals/:id.
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.goalService.DeleteGoal(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "goal deleted"})
}

// ContributeRequest is the payload for a goal contribution. Amount is
// signed minor units; withdrawals are negative and must not take the
// goal below zero.
type ContributeRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// Contribute handles POST /goals/:id/contributions.
func (h *GoalHandler) Contribute(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	goal, err := h.goalService.ApplyContribution(userID, c.Param("id"), money.Amount(req.Amount))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// UpdateGoalStatusRequest is the payload for a status change.
type UpdateGoalStatusRequest struct {
	Status string `json:"status" binding:"required,goal_status"`
}

// UpdateGoalStatus handles PUT /goals/:id/status. Completed is terminal.
func (h *GoalHandler) UpdateGoalStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGoalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	goal, err := h.goalService.UpdateStatus(userID, c.Param("id"), models.GoalStatus(req.Status))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}
