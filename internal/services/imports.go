package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/models"
)

// ImportFailure describes one row of an import batch that could not be saved
type ImportFailure struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Error       string `json:"error"`
}

// ImportResult is the outcome of saving an import batch
type ImportResult struct {
	Saved  []models.Transaction `json:"saved"`
	Failed []ImportFailure      `json:"failed"`
}

// Importer turns parsed statement rows into transactions
type Importer struct {
	ledger *Ledger
	tagger *AutoTagger
	log    zerolog.Logger
	newID  func() string
	now    func() time.Time
}

func NewImporter(ledger *Ledger, tagger *AutoTagger, log zerolog.Logger) *Importer {
	return &Importer{
		ledger: ledger,
		tagger: tagger,
		log:    log.With().Str("component", "importer").Logger(),
		newID:  func() string { return uuid.New().String() },
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ClassifyImportedBatch converts raw statement rows into unsaved bank_import
// transactions against accountID and fills category/payee from learned
// patterns. Debits become expenses and credits income. Rows with a malformed
// date, an amount that is negative, non-finite or finer than a cent, or an
// unknown direction are dropped.
func (i *Importer) ClassifyImportedBatch(ctx context.Context, accountID string, rows []models.RawRow) ([]models.Transaction, error) {
	if accountID == "" {
		return nil, invalidf("account_id is required")
	}
	if _, err := i.ledger.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	now := i.now()
	txs := make([]models.Transaction, 0, len(rows))
	for idx, row := range rows {
		var txType models.TransactionType
		switch row.Direction {
		case models.DirectionDebit:
			txType = models.TransactionExpense
		case models.DirectionCredit:
			txType = models.TransactionIncome
		default:
			i.log.Warn().Int("row", idx).Str("direction", string(row.Direction)).Msg("Dropping row with unknown direction")
			continue
		}
		if !validDate(row.Date) {
			i.log.Warn().Int("row", idx).Str("date", row.Date).Msg("Dropping row with malformed date")
			continue
		}
		if !validAmount(row.Amount) {
			i.log.Warn().Int("row", idx).Float64("amount", row.Amount).Msg("Dropping row with invalid amount")
			continue
		}

		txs = append(txs, models.Transaction{
			ID:              i.newID(),
			Date:            row.Date,
			Description:     strings.TrimSpace(row.Description),
			Amount:          row.Amount,
			AccountID:       accountID,
			TransactionType: txType,
			Source:          models.SourceBankImport,
			Reference:       row.Reference,
			CreatedAt:       now,
		})
	}

	txs = i.tagger.Apply(ctx, txs)
	i.log.Info().Str("account_id", accountID).Int("rows", len(rows)).Int("classified", len(txs)).Msg("Import batch classified")
	return txs, nil
}

// SaveImportedBatch persists reviewed rows through the regular create path so
// every row moves balances and teaches patterns. A failing row is reported
// and the rest of the batch continues. Errors other than validation or
// missing references abort the batch.
func (i *Importer) SaveImportedBatch(ctx context.Context, inputs []models.TransactionInput) (ImportResult, error) {
	result := ImportResult{
		Saved:  []models.Transaction{},
		Failed: []ImportFailure{},
	}

	for idx, in := range inputs {
		if in.Source == "" {
			in.Source = models.SourceBankImport
		}
		t, err := i.ledger.CreateTransaction(ctx, in)
		if err != nil {
			if !errors.Is(err, ErrInvalidArgument) && !errors.Is(err, ErrNotFound) {
				return result, err
			}
			result.Failed = append(result.Failed, ImportFailure{
				Index:       idx,
				Description: in.Description,
				Error:       err.Error(),
			})
			continue
		}
		result.Saved = append(result.Saved, t)
	}

	i.log.Info().Int("saved", len(result.Saved)).Int("failed", len(result.Failed)).Msg("Import batch saved")
	return result, nil
}
