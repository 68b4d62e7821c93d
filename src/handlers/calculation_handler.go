package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/username/lossfolio/backend/src/logger"
	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/services"
	"github.com/username/lossfolio/backend/src/settlement"
	"github.com/username/lossfolio/backend/src/utils"
)

// Batch responses carry at most this many detailed matches; the export
// endpoints serve the full list.
const maxMatchesInResponse = 100

type CalculationHandler struct {
	calculationService services.CalculationService
}

func NewCalculationHandler(service services.CalculationService) *CalculationHandler {
	return &CalculationHandler{
		calculationService: service,
	}
}

type singleRequest struct {
	SettlementType string   `json:"settlement_type"`
	PurchaseDate   string   `json:"purchase_date"`
	PurchasePrice  float64  `json:"purchase_price"`
	SaleDate       string   `json:"sale_date,omitempty"`
	SalePrice      *float64 `json:"sale_price,omitempty"`
	Quantity       float64  `json:"quantity,omitempty"`
}

func (h *CalculationHandler) HandleCalculateSingle(w http.ResponseWriter, r *http.Request) {
	var req singleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid JSON request body", http.StatusBadRequest)
		return
	}

	settlementType, err := settlement.ParseType(req.SettlementType)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Unknown settlement_type %q. Use TWITTER or KRAFT_HEINZ.", req.SettlementType), http.StatusBadRequest)
		return
	}

	purchaseDate, err := utils.ParseFlexibleDate(req.PurchaseDate)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid purchase_date %q", req.PurchaseDate), http.StatusBadRequest)
		return
	}

	input := services.SingleInput{
		Type:          settlementType,
		PurchaseDate:  purchaseDate,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Quantity:      req.Quantity,
	}

	if req.SaleDate != "" {
		saleDate, err := utils.ParseFlexibleDate(req.SaleDate)
		if err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Invalid sale_date %q", req.SaleDate), http.StatusBadRequest)
			return
		}
		input.SaleDate = &saleDate
	}

	result, err := h.calculationService.CalculateSingle(input)
	if err != nil {
		logger.L.Error("Single calculation failed", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Calculation failed: %v", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding single calculation response", "error", err)
	}
}

type batchRequest struct {
	UploadID string `json:"upload_id"`
}

type batchResponse struct {
	CalculationID       string               `json:"calculation_id"`
	Success             bool                 `json:"success"`
	Error               string               `json:"error,omitempty"`
	SettlementType      string               `json:"settlement_type"`
	Summary             *models.Summary      `json:"summary,omitempty"`
	AverageLossPerShare float64              `json:"average_loss_per_share,omitempty"`
	RuleDistribution    map[string]int       `json:"rule_distribution,omitempty"`
	MatchCount          int                  `json:"match_count"`
	Matches             []models.MatchResult `json:"matches,omitempty"`
	CalculatedAt        time.Time            `json:"calculated_at"`
}

func (h *CalculationHandler) HandleCalculateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid JSON request body", http.StatusBadRequest)
		return
	}
	if req.UploadID == "" {
		utils.SendJSONError(w, "upload_id is required", http.StatusBadRequest)
		return
	}

	batch, err := h.calculationService.Calculate(req.UploadID)
	if err != nil {
		if errors.Is(err, services.ErrUploadNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Upload %s not found", req.UploadID), http.StatusNotFound)
		} else {
			logger.L.Error("Batch calculation failed", "uploadID", req.UploadID, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Calculation failed: %v", err), http.StatusInternalServerError)
		}
		return
	}

	result := batch.Result
	response := batchResponse{
		CalculationID:  batch.CalculationID,
		Success:        result.Success,
		Error:          result.Error,
		SettlementType: result.SettlementType,
		Summary:        result.Summary,
		MatchCount:     len(result.Matches),
		CalculatedAt:   result.CalculatedAt,
	}

	if result.Success {
		response.Matches = result.Matches
		if len(response.Matches) > maxMatchesInResponse {
			response.Matches = response.Matches[:maxMatchesInResponse]
		}
		response.RuleDistribution = make(map[string]int)
		for _, m := range result.Matches {
			response.RuleDistribution[m.RuleCode]++
		}
		if result.Summary != nil && result.Summary.TotalQuantity > 0 {
			response.AverageLossPerShare = utils.RoundFloat(result.Summary.TotalLoss/result.Summary.TotalQuantity, 4)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L.Error("Error encoding batch calculation response", "error", err)
	}
}

// HandleGetCalculation serves a cached result with ETag support, so polling
// clients can cheaply re-check an unchanged calculation.
func (h *CalculationHandler) HandleGetCalculation(w http.ResponseWriter, r *http.Request) {
	calculationID := chi.URLParam(r, "id")

	result, err := h.calculationService.GetResult(calculationID)
	if err != nil {
		if errors.Is(err, services.ErrCalculationNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Calculation %s not found or expired", calculationID), http.StatusNotFound)
		} else {
			logger.L.Error("Error retrieving calculation", "calculationID", calculationID, "error", err)
			utils.SendJSONError(w, "Error retrieving calculation", http.StatusInternalServerError)
		}
		return
	}

	currentETag, etagErr := utils.GenerateETag(result)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for calculation", "calculationID", calculationID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding calculation response", "calculationID", calculationID, "error", err)
	}
}
