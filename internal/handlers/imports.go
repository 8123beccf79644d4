package handlers

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/services"
	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

const (
	// PresignedURLExpiry is how long an upload URL stays valid
	PresignedURLExpiry = 15 * time.Minute
	// PresignedURLExpirySeconds is the expiry reported to clients
	PresignedURLExpirySeconds = int(PresignedURLExpiry / time.Second)
)

// ImportHandler runs the statement import pipeline: upload, validate, parse,
// classify, then save after the client has reviewed the rows.
type ImportHandler struct {
	storage   StorageService
	validator FileValidator
	parser    Parser
	importer  ImportService
	log       zerolog.Logger
}

// NewImportHandler creates an import handler. storage may be nil, in which
// case only direct multipart uploads are available.
func NewImportHandler(storage StorageService, validator FileValidator, parser Parser, importer ImportService, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		storage:   storage,
		validator: validator,
		parser:    parser,
		importer:  importer,
		log:       log.With().Str("component", "imports").Logger(),
	}
}

// GetPresignedURL generates a presigned URL for a statement upload
// GET /v1/imports/presigned-url?account_id=&filename=&content_type=
func (h *ImportHandler) GetPresignedURL(c fiber.Ctx) error {
	if h.storage == nil {
		return utils.NewUnavailableError("statement storage is not configured")
	}

	accountID := c.Query("account_id")
	filename := c.Query("filename")
	contentType := c.Query("content_type")

	if accountID == "" {
		return utils.NewBadRequestError("account_id is required", nil)
	}
	if filename == "" {
		return utils.NewBadRequestError("filename is required", nil)
	}
	if contentType == "" {
		return utils.NewBadRequestError("content_type is required", nil)
	}
	if err := h.validator.ValidateFilename(filename); err != nil {
		return utils.NewBadRequestError("unsupported file type", err.Error())
	}
	if err := h.validator.ValidateMimeType(contentType); err != nil {
		return utils.NewBadRequestError("unsupported file type", err.Error())
	}

	key, err := h.storage.GenerateUploadKey(accountID, filename)
	if err != nil {
		return err
	}

	url, err := h.storage.GeneratePresignedURL(c.Context(), key, contentType, PresignedURLExpiry)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"upload_url": url,
		"file_key":   key,
		"expires_in": PresignedURLExpirySeconds,
	})
}

// ProcessUploadRequest represents the request body for ProcessUpload
type ProcessUploadRequest struct {
	FileKey   string `json:"file_key"`
	AccountID string `json:"account_id"`
}

// ProcessUpload downloads an uploaded statement, parses it and returns the
// classified rows for review. Nothing is saved.
// POST /v1/imports/process
// Body: {"file_key": "statements/acc-1/1699564800-ab12cd34-hdfc.csv", "account_id": "acc-1"}
func (h *ImportHandler) ProcessUpload(c fiber.Ctx) error {
	if h.storage == nil {
		return utils.NewUnavailableError("statement storage is not configured")
	}

	var req ProcessUploadRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.FileKey == "" {
		return utils.NewBadRequestError("file_key is required", nil)
	}
	if req.AccountID == "" {
		return utils.NewBadRequestError("account_id is required", nil)
	}

	// Security check: the key must have been issued for this account
	if owner, ok := services.AccountFromKey(req.FileKey); !ok || owner != req.AccountID {
		return utils.NewForbiddenError("file does not belong to this account")
	}

	reader, err := h.storage.DownloadFile(c.Context(), req.FileKey)
	if err != nil {
		return utils.NewNotFoundError("file")
	}
	defer reader.Close()

	filename := filepath.Base(req.FileKey)
	summary, err := h.process(c, reader, filename, contentTypeForFile(filename), req.AccountID)
	if err != nil {
		return err
	}

	if err := h.storage.DeleteFile(c.Context(), req.FileKey); err != nil {
		log := requestLog(c, h.log)
		log.Warn().Err(err).Str("file_key", req.FileKey).Msg("Failed to delete processed statement")
	}

	summary["file_key"] = req.FileKey
	return c.JSON(summary)
}

// UploadStatement accepts a statement as a multipart upload and returns the
// classified rows for review. Nothing is saved.
// POST /v1/imports/statement (form fields: file, account_id)
func (h *ImportHandler) UploadStatement(c fiber.Ctx) error {
	accountID := c.FormValue("account_id")
	if accountID == "" {
		return utils.NewBadRequestError("account_id is required", nil)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return utils.NewBadRequestError("file is required", err.Error())
	}

	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	contentType := header.Header.Get(fiber.HeaderContentType)
	if contentType == "" || contentType == fiber.MIMEOctetStream {
		contentType = contentTypeForFile(header.Filename)
	}

	summary, err := h.process(c, file, header.Filename, contentType, accountID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// SaveImportRequest represents the request body for SaveImport
type SaveImportRequest struct {
	Transactions []models.TransactionInput `json:"transactions"`
}

// SaveImport persists reviewed rows. Rows that fail are reported and the
// rest of the batch is still saved.
// POST /v1/imports/save
func (h *ImportHandler) SaveImport(c fiber.Ctx) error {
	var req SaveImportRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if len(req.Transactions) == 0 {
		return utils.NewBadRequestError("transactions is required", nil)
	}

	result, err := h.importer.SaveImportedBatch(c.Context(), req.Transactions)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if len(result.Saved) == 0 {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{
		"saved":        result.Saved,
		"failed":       result.Failed,
		"saved_count":  len(result.Saved),
		"failed_count": len(result.Failed),
	})
}

// process validates, parses and classifies one statement
func (h *ImportHandler) process(c fiber.Ctx, r io.Reader, filename, contentType, accountID string) (fiber.Map, error) {
	result, err := h.validator.ValidateFile(r, filename, contentType)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, utils.NewBadRequestError("invalid statement file", result)
	}

	rows, err := h.parser.Parse(bytes.NewReader(result.Data), result.DetectedType)
	if err != nil {
		return nil, utils.NewBadRequestError("failed to parse file", err.Error())
	}

	txs, err := h.importer.ClassifyImportedBatch(c.Context(), accountID, rows)
	if err != nil {
		return nil, err
	}

	log := requestLog(c, h.log)
	log.Info().
		Str("account_id", accountID).
		Str("file", filename).
		Int("rows", len(rows)).
		Int("transactions", len(txs)).
		Msg("Statement processed")

	return buildProcessSummary(filename, rows, txs, result.Warnings), nil
}

// buildProcessSummary creates the review response from classified rows
func buildProcessSummary(filename string, rows []models.RawRow, txs []models.Transaction, warnings []string) fiber.Map {
	classified := 0
	for _, t := range txs {
		if t.IsClassified() {
			classified++
		}
	}

	var accuracyPercent float64
	if len(txs) > 0 {
		accuracyPercent = float64(classified) / float64(len(txs)) * 100
	}

	return fiber.Map{
		"filename":         filename,
		"rows_parsed":      len(rows),
		"rows_dropped":     len(rows) - len(txs),
		"classified":       classified,
		"unclassified":     len(txs) - classified,
		"accuracy_percent": accuracyPercent,
		"date_range":       calculateDateRange(txs),
		"warnings":         warnings,
		"transactions":     txs,
	}
}

// calculateDateRange finds the earliest and latest transaction dates.
// Dates are YYYY-MM-DD so string order is date order.
func calculateDateRange(txs []models.Transaction) fiber.Map {
	var from, to string
	for _, t := range txs {
		if from == "" || t.Date < from {
			from = t.Date
		}
		if t.Date > to {
			to = t.Date
		}
	}
	return fiber.Map{
		"from": from,
		"to":   to,
	}
}

// contentTypeForFile infers the MIME type from a statement's extension
func contentTypeForFile(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return fiber.MIMEOctetStream
}
