package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/lossfolio/backend/src/config"
	"github.com/username/lossfolio/backend/src/logger"
	"github.com/username/lossfolio/backend/src/security/validation"
	"github.com/username/lossfolio/backend/src/services"
	"github.com/username/lossfolio/backend/src/settlement"
	"github.com/username/lossfolio/backend/src/utils"
)

type UploadHandler struct {
	calculationService services.CalculationService
}

func NewUploadHandler(service services.CalculationService) *UploadHandler {
	return &UploadHandler{
		calculationService: service,
	}
}

// uploadResponse is the upload payload, with the calculation attached when
// the client asked for calculate_now.
type uploadResponse struct {
	Upload      *services.UploadResult `json:"upload"`
	Calculation *services.BatchResult  `json:"calculation,omitempty"`
}

func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB (header check)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("File content validated", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	typeStr := r.FormValue("settlement_type")
	if typeStr == "" {
		typeStr = config.Cfg.DefaultSettlementType
	}
	settlementType, err := settlement.ParseType(typeStr)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Unknown settlement_type %q. Use TWITTER or KRAFT_HEINZ.", typeStr), http.StatusBadRequest)
		return
	}

	result, err := h.calculationService.ProcessUpload(file, fileHeader.Filename, settlementType)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			logger.L.Warn("Upload processing failed due to parsing errors", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing file: %v", err), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error processing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	response := uploadResponse{Upload: result}

	if r.FormValue("calculate_now") == "true" {
		batch, err := h.calculationService.Calculate(result.UploadID)
		if err != nil {
			logger.L.Error("calculate_now failed after upload", "uploadID", result.UploadID, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Upload stored as %s but calculation failed: %v", result.UploadID, err), http.StatusInternalServerError)
			return
		}
		response.Calculation = batch
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L.Error("Error encoding JSON response for upload result", "error", err)
	}
}
