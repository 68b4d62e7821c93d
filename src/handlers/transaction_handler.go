package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/lossfolio/backend/src/logger"
	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/services"
	"github.com/username/lossfolio/backend/src/utils"
)

type TransactionHandler struct {
	calculationService services.CalculationService
}

func NewTransactionHandler(service services.CalculationService) *TransactionHandler {
	return &TransactionHandler{
		calculationService: service,
	}
}

// HandleGetUploadTransactions lists the stored normalized transactions for
// one upload.
func (h *TransactionHandler) HandleGetUploadTransactions(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "id")

	txs, err := h.calculationService.GetUploadTransactions(uploadID)
	if err != nil {
		if errors.Is(err, services.ErrUploadNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Upload %s not found", uploadID), http.StatusNotFound)
		} else {
			logger.L.Error("Error retrieving upload transactions", "uploadID", uploadID, "error", err)
			utils.SendJSONError(w, "Error retrieving transactions", http.StatusInternalServerError)
		}
		return
	}

	if txs == nil {
		txs = []models.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"upload_id":    uploadID,
		"count":        len(txs),
		"transactions": txs,
	}); err != nil {
		logger.L.Error("Error encoding transactions response", "uploadID", uploadID, "error", err)
	}
}
