package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/logger"
	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/services"
	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

// AccountService is implemented by services.Ledger
type AccountService interface {
	CreateAccount(ctx context.Context, in models.AccountInput) (models.Account, error)
	GetAccount(ctx context.Context, id string) (models.Account, error)
	ListAccounts(ctx context.Context, accountType models.AccountType) ([]models.Account, error)
	UpdateAccount(ctx context.Context, id string, in models.AccountInput) (models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// TransactionService is implemented by services.Ledger
type TransactionService interface {
	CreateTransaction(ctx context.Context, in models.TransactionInput) (models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch models.TransactionPatch) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	BulkTag(ctx context.Context, ids []string, categoryID, payeeID string) (int, error)
}

// CategoryService is implemented by services.CategoryService
type CategoryService interface {
	CreateCategory(ctx context.Context, in models.CategoryInput) (models.Category, error)
	GetCategory(ctx context.Context, id string) (models.Category, error)
	ListCategories(ctx context.Context, categoryType models.CategoryType) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id string, in models.CategoryInput) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// TagPatternService is implemented by services.AutoTagger
type TagPatternService interface {
	ListPatterns(ctx context.Context) ([]models.TagPattern, error)
	DeletePattern(ctx context.Context, id string) error
}

// LoanService is implemented by services.LoanService
type LoanService interface {
	CreateLoan(ctx context.Context, in models.LoanInput) (models.Loan, error)
	GetLoan(ctx context.Context, id string) (models.Loan, error)
	ListLoans(ctx context.Context, loanType models.LoanType) ([]models.Loan, error)
	UpdateLoan(ctx context.Context, id string, patch models.LoanPatch) (models.Loan, error)
	DeleteLoan(ctx context.Context, id string) error
	CalculateLoanInterest(ctx context.Context, loanID, asOf string) (models.InterestBreakdown, error)
}

// ImportService is implemented by services.Importer
type ImportService interface {
	ClassifyImportedBatch(ctx context.Context, accountID string, rows []models.RawRow) ([]models.Transaction, error)
	SaveImportedBatch(ctx context.Context, inputs []models.TransactionInput) (services.ImportResult, error)
}

// StorageService interface defines methods for S3 operations
type StorageService interface {
	GenerateUploadKey(accountID, filename string) (string, error)
	GeneratePresignedURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, key string) error
}

// Parser interface defines methods for parsing bank statement files
type Parser interface {
	Parse(file io.Reader, fileType string) ([]models.RawRow, error)
}

// FileValidator checks uploaded statements before parsing
type FileValidator interface {
	ValidateFilename(filename string) error
	ValidateMimeType(contentType string) error
	ValidateFile(reader io.Reader, filename, contentType string) (*services.ValidationResult, error)
}

// BalanceAuditor is implemented by services.Ledger
type BalanceAuditor interface {
	AuditBalances(ctx context.Context, fix bool) ([]models.BalanceDrift, error)
}

// requestLog returns the request-scoped logger set by middleware.RequestLogger
func requestLog(c fiber.Ctx, fallback zerolog.Logger) zerolog.Logger {
	if log, ok := c.Locals(logger.LocalsKey).(zerolog.Logger); ok {
		return log
	}
	return fallback
}

// bindJSON decodes the request body or returns a 400
func bindJSON(c fiber.Ctx, out any) error {
	if err := c.Bind().JSON(out); err != nil {
		return utils.NewBadRequestError("invalid request body", err.Error())
	}
	return nil
}
