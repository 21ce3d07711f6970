package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

// ImportHandler handles bulk transaction imports.
type ImportHandler struct {
	importService services.ImportServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService services.ImportServicer) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// ImportRequest is the payload for a bulk import. Rows carry amounts as
// decimal strings; DefaultAccountID backs rows with no account name.
type ImportRequest struct {
	Rows             []services.ImportRow `json:"rows" binding:"required"`
	DefaultAccountID *string              `json:"default_account_id" binding:"omitempty,uuid"`
}

// Import handles POST /transactions/import. Rows are independent; the
// response reports imported and skipped counts plus per-row errors.
func (h *ImportHandler) Import(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.importService.Import(c.Request.Context(), userID, req.Rows, req.DefaultAccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
