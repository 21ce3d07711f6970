package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// RecurringHandler handles recurring-rule requests.
type RecurringHandler struct {
	recurringService services.RecurringServicer
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService}
}

// CreateRuleRequest is the payload for creating a recurring rule.
type CreateRuleRequest struct {
	AccountID   string  `json:"account_id" binding:"required,uuid"`
	ToAccountID *string `json:"to_account_id" binding:"omitempty,uuid"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	Type        string  `json:"type" binding:"required,transaction_type"`
	Amount      int64   `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"omitempty,max=500"`
	Frequency   string  `json:"frequency" binding:"required,recurring_frequency"`
	StartAt     *string `json:"start_at"`
}

// CreateRule handles POST /recurring-rules.
func (h *RecurringHandler) CreateRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	input := services.RecurringRuleInput{
		AccountID:   req.AccountID,
		ToAccountID: req.ToAccountID,
		CategoryID:  req.CategoryID,
		Type:        models.TransactionType(req.Type),
		Amount:      money.Amount(req.Amount),
		Description: req.Description,
		Frequency:   models.RecurringFrequency(req.Frequency),
	}
	if req.StartAt != nil {
		startAt, err := parseFlexibleTime(*req.StartAt)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
			return
		}
		input.StartAt = startAt
	}

	rule, err := h.recurringService.CreateRule(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// GetRules handles GET /recurring-rules with an optional is_active filter.
func (h *RecurringHandler) GetRules(c *gin.Context) {
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

	var isActive *bool
	if v := c.Query("is_active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "is_active must be a boolean"))
			return
		}
		isActive = &parsed
	}

	rules, err := h.recurringService.GetUserRules(userID, page, isActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// GetRule handles GET /recurring-rules/:id.
func (h *RecurringHandler) GetRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rule, err := h.recurringService.GetRuleByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// UpdateRuleRequest is the payload for a partial rule update.
type UpdateRuleRequest struct {
	Amount      *int64  `json:"amount" binding:"omitempty,gt=0"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Frequency   *string `json:"frequency" binding:"omitempty,recurring_frequency"`
	NextRunAt   *string `json:"next_run_at"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateRule handles PUT /recurring-rules/:id.
func (h *RecurringHandler) UpdateRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	fields := services.RecurringRulePatch{
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.Amount != nil {
		amount := money.Amount(*req.Amount)
		fields.Amount = &amount
	}
	if req.Frequency != nil {
		frequency := models.RecurringFrequency(*req.Frequency)
		fields.Frequency = &frequency
	}
	if req.NextRunAt != nil {
		nextRunAt, err := parseFlexibleTime(*req.NextRunAt)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
			return
		}
		fields.NextRunAt = &nextRunAt
	}

	rule, err := h.recurringService.UpdateRule(userID, c.Param("id"), fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule handles DELETE /recurring-rules/:id.
func (h *RecurringHandler) DeleteRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeleteRule(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rule deleted"})
}

// GenerateDue handles POST /recurring-rules/generate. Every elapsed
// occurrence of the user's active rules is posted and NextRunAt advanced.
func (h *RecurringHandler) GenerateDue(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	generated, err := h.recurringService.GenerateDue(c.Request.Context(), userID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"generated": generated})
}
