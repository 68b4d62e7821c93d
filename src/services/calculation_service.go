package services

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/lossfolio/backend/src/database"
	"github.com/username/lossfolio/backend/src/logger"
	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/parsers"
	"github.com/username/lossfolio/backend/src/processors"
	"github.com/username/lossfolio/backend/src/settlement"
	"github.com/username/lossfolio/backend/src/utils"
)

const previewRows = 5

type calculationServiceImpl struct {
	matchProcessor   processors.MatchProcessor
	heldProcessor    processors.HeldProcessor
	summaryProcessor processors.SummaryProcessor
	resultCache      *cache.Cache
}

func NewCalculationService(
	matchProcessor processors.MatchProcessor,
	heldProcessor processors.HeldProcessor,
	summaryProcessor processors.SummaryProcessor,
	resultCache *cache.Cache,
) CalculationService {
	return &calculationServiceImpl{
		matchProcessor:   matchProcessor,
		heldProcessor:    heldProcessor,
		summaryProcessor: summaryProcessor,
		resultCache:      resultCache,
	}
}

// ProcessUpload parses one uploaded file and persists the normalized batch
// under a fresh upload ID. Row-level parse failures are reported back, never
// fatal; a file that yields no transactions at all is a parse failure.
func (s *calculationServiceImpl) ProcessUpload(file io.Reader, filename string, settlementType settlement.Type) (*UploadResult, error) {
	startTime := time.Now()
	logger.L.Info("ProcessUpload START", "filename", filename, "settlementType", settlementType)

	cfg, err := settlement.NewConfiguration(settlementType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	parser, err := parsers.GetParser(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	parsed, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if len(parsed.Transactions) == 0 {
		return nil, fmt.Errorf("%w: no transactions found in file", ErrParsingFailed)
	}

	// Beginning holdings are carried at the day before the class period with
	// no cost basis, whatever date the file put on them.
	holdingsDate := cfg.ClassStart.AddDate(0, 0, -1)
	for i, tx := range parsed.Transactions {
		if tx.Type == models.TypeBeginningHoldings {
			parsed.Transactions[i].Date = holdingsDate
			parsed.Transactions[i].Price = 0
		}
	}

	uploadID := uuid.NewString()
	createdAt := time.Now().UTC()

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.Exec(
		`INSERT INTO uploads (id, filename, settlement_type, transaction_count, row_count, error_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uploadID, filename, string(settlementType), len(parsed.Transactions), parsed.TotalRows, parsed.ErrorCount(), createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error inserting upload: %w", err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO transactions (upload_id, txn_id, date, quantity, price, type, entity, fund_name, security_id, comment) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, tx := range parsed.Transactions {
		_, err = stmt.Exec(uploadID, tx.ID, tx.Date.Format(time.RFC3339), tx.Quantity, tx.Price, string(tx.Type), tx.Entity, tx.FundName, tx.SecurityID, tx.Comment)
		if err != nil {
			return nil, fmt.Errorf("error inserting transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing upload: %w", err)
	}

	preview := parsed.Transactions
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	logger.L.Info("ProcessUpload END",
		"uploadID", uploadID,
		"transactions", len(parsed.Transactions),
		"rowErrors", parsed.ErrorCount(),
		"duration", time.Since(startTime))

	return &UploadResult{
		UploadID:         uploadID,
		Filename:         filename,
		SettlementType:   string(settlementType),
		TransactionCount: len(parsed.Transactions),
		TotalRows:        parsed.TotalRows,
		ErrorCount:       parsed.ErrorCount(),
		Errors:           parsed.RowErrors,
		ColumnMapping:    parsed.ColumnMapping,
		Preview:          preview,
		CreatedAt:        createdAt,
	}, nil
}

func (s *calculationServiceImpl) GetUploadTransactions(uploadID string) ([]models.Transaction, error) {
	_, txs, err := s.loadUpload(uploadID)
	return txs, err
}

// Calculate runs the full pipeline over a stored upload and caches the
// result under a fresh calculation ID.
func (s *calculationServiceImpl) Calculate(uploadID string) (*BatchResult, error) {
	settlementType, txs, err := s.loadUpload(uploadID)
	if err != nil {
		return nil, err
	}

	engine, err := settlement.NewRuleEngine(settlementType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	result := s.run(engine, txs)

	calculationID := uuid.NewString()
	s.resultCache.Set(calculationID, result, cache.DefaultExpiration)

	logger.L.Info("Calculation complete",
		"uploadID", uploadID,
		"calculationID", calculationID,
		"success", result.Success,
		"matches", len(result.Matches))

	return &BatchResult{CalculationID: calculationID, Result: result}, nil
}

// run is the pipeline boundary: a panic anywhere in matching or aggregation
// becomes a failed CalculationResult, never a crashed request.
func (s *calculationServiceImpl) run(engine settlement.RuleEngine, txs []models.Transaction) (result *models.CalculationResult) {
	settlementType := string(engine.Config().Type)

	defer func() {
		if r := recover(); r != nil {
			logger.L.Error("Calculation pipeline panicked", "error", r)
			result = &models.CalculationResult{
				Success:        false,
				Error:          fmt.Sprintf("calculation failed: %v", r),
				SettlementType: settlementType,
				CalculatedAt:   time.Now().UTC(),
			}
		}
	}()

	matches, ledger := s.matchProcessor.Process(engine, txs)
	matches = append(matches, s.heldProcessor.Process(engine, ledger)...)
	summary := s.summaryProcessor.Summarize(settlementType, matches)

	return &models.CalculationResult{
		Success:        true,
		SettlementType: settlementType,
		Matches:        matches,
		Summary:        summary,
		CalculatedAt:   time.Now().UTC(),
	}
}

// CalculateSingle evaluates one purchase/sale pair. The result is cached as
// a one-match calculation so it can be fetched and exported like a batch.
func (s *calculationServiceImpl) CalculateSingle(input SingleInput) (*SingleResult, error) {
	engine, err := settlement.NewRuleEngine(input.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	eval := engine.Evaluate(input.PurchaseDate, input.PurchasePrice, input.SaleDate, input.SalePrice)
	totalLoss := eval.RecognizedLoss * quantity

	calculationID := uuid.NewString()
	calculatedAt := time.Now().UTC()

	match := models.MatchResult{
		MatchID:        "single_0",
		PurchaseID:     "single_purchase",
		Quantity:       quantity,
		RecognizedLoss: totalLoss,
		RuleApplied:    eval.RuleApplied,
		RuleCode:       eval.RuleCode,
		PurchaseDate:   input.PurchaseDate,
		SaleDate:       input.SaleDate,
		PurchasePrice:  input.PurchasePrice,
		SalePrice:      input.SalePrice,
		Entity:         "Single",
		FundName:       "Single",
		Details:        eval.Details,
	}
	if input.SaleDate != nil {
		match.SaleID = "single_sale"
	}

	result := &models.CalculationResult{
		Success:        true,
		SettlementType: string(input.Type),
		Matches:        []models.MatchResult{match},
		Summary:        s.summaryProcessor.Summarize(string(input.Type), []models.MatchResult{match}),
		CalculatedAt:   calculatedAt,
	}
	s.resultCache.Set(calculationID, result, cache.DefaultExpiration)

	return &SingleResult{
		CalculationID:  calculationID,
		SettlementType: string(input.Type),
		Quantity:       quantity,
		PerShareLoss:   eval.RecognizedLoss,
		TotalLoss:      utils.RoundFloat(totalLoss, 4),
		RuleCode:       eval.RuleCode,
		RuleApplied:    eval.RuleApplied,
		Details:        eval.Details,
		CalculatedAt:   calculatedAt,
	}, nil
}

func (s *calculationServiceImpl) GetResult(calculationID string) (*models.CalculationResult, error) {
	cached, found := s.resultCache.Get(calculationID)
	if !found {
		return nil, ErrCalculationNotFound
	}
	result, ok := cached.(*models.CalculationResult)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected cached type", ErrCalculationNotFound)
	}
	return result, nil
}

func (s *calculationServiceImpl) loadUpload(uploadID string) (settlement.Type, []models.Transaction, error) {
	var settlementTypeStr string
	err := database.DB.QueryRow(`SELECT settlement_type FROM uploads WHERE id = ?`, uploadID).Scan(&settlementTypeStr)
	if err == sql.ErrNoRows {
		return "", nil, ErrUploadNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("error querying upload %s: %w", uploadID, err)
	}

	settlementType, err := settlement.ParseType(settlementTypeStr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: stored upload has unknown settlement type %q", ErrProcessingFailed, settlementTypeStr)
	}

	rows, err := database.DB.Query(
		`SELECT txn_id, date, quantity, price, type, entity, fund_name, security_id, comment FROM transactions WHERE upload_id = ? ORDER BY id`,
		uploadID,
	)
	if err != nil {
		return "", nil, fmt.Errorf("error querying transactions for upload %s: %w", uploadID, err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var dateStr, txType string
		if err := rows.Scan(&tx.ID, &dateStr, &tx.Quantity, &tx.Price, &txType, &tx.Entity, &tx.FundName, &tx.SecurityID, &tx.Comment); err != nil {
			return "", nil, fmt.Errorf("error scanning transaction row for upload %s: %w", uploadID, err)
		}
		tx.Date, err = time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return "", nil, fmt.Errorf("error parsing stored date %q for upload %s: %w", dateStr, uploadID, err)
		}
		tx.Type = models.TransactionType(txType)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("error iterating transaction rows for upload %s: %w", uploadID, err)
	}

	return settlementType, txs, nil
}
