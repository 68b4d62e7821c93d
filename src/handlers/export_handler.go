package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/username/lossfolio/backend/src/exporters"
	"github.com/username/lossfolio/backend/src/logger"
	"github.com/username/lossfolio/backend/src/services"
	"github.com/username/lossfolio/backend/src/utils"
)

type ExportHandler struct {
	calculationService services.CalculationService
}

func NewExportHandler(service services.CalculationService) *ExportHandler {
	return &ExportHandler{
		calculationService: service,
	}
}

// HandleExport streams a cached calculation as csv, xlsx, or json.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	calculationID := chi.URLParam(r, "id")
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}

	result, err := h.calculationService.GetResult(calculationID)
	if err != nil {
		if errors.Is(err, services.ErrCalculationNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("Calculation %s not found or expired", calculationID), http.StatusNotFound)
		} else {
			logger.L.Error("Error retrieving calculation for export", "calculationID", calculationID, "error", err)
			utils.SendJSONError(w, "Error retrieving calculation", http.StatusInternalServerError)
		}
		return
	}
	if !result.Success {
		utils.SendJSONError(w, fmt.Sprintf("Calculation %s failed, nothing to export", calculationID), http.StatusConflict)
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="settlement_results_%s.csv"`, calculationID))
		err = exporters.WriteCSV(w, result)
	case "xlsx", "excel":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="settlement_results_%s.xlsx"`, calculationID))
		err = exporters.WriteXLSX(w, result)
	case "json":
		w.Header().Set("Content-Type", "application/json")
		err = exporters.WriteJSON(w, result)
	default:
		utils.SendJSONError(w, fmt.Sprintf("Unsupported export format %q. Use csv, xlsx, or json.", format), http.StatusBadRequest)
		return
	}

	if err != nil {
		// Headers are already written; log and drop the connection.
		logger.L.Error("Export failed mid-stream", "calculationID", calculationID, "format", format, "error", err)
	}
}
