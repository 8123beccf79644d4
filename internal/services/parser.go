package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ashmitsharp/moneybook-api/internal/models"
)

// headerScanLimit is how many leading rows are searched for the column
// header. Bank exports carry account details above the table.
const headerScanLimit = 30

var (
	ErrEmptyStatement       = errors.New("empty file")
	ErrUnknownBank          = errors.New("unknown bank format")
	ErrUnsupportedStatement = errors.New("unsupported statement type")
)

// Parser extracts raw rows from bank statement exports
type Parser struct {
	bankSchemas map[string]models.BankSchema
	log         zerolog.Logger
}

// NewParser creates a new parser instance with predefined bank schemas
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{
		log: log.With().Str("component", "parser").Logger(),
		bankSchemas: map[string]models.BankSchema{
			"HDFC": {
				BankName:           "HDFC",
				DateColumn:         "Date",
				DescriptionColumn:  "Narration",
				ReferenceColumn:    "Chq./Ref.No.",
				DebitColumn:        "Withdrawal Amt.",
				CreditColumn:       "Deposit Amt.",
				HasSeparateAmounts: true,
			},
			"ICICI": {
				BankName:           "ICICI",
				DateColumn:         "Transaction Date",
				DescriptionColumn:  "Transaction Remarks",
				ReferenceColumn:    "Cheque Number",
				DebitColumn:        "Withdrawal Amount (INR)",
				CreditColumn:       "Deposit Amount (INR)",
				HasSeparateAmounts: true,
			},
			"SBI": {
				BankName:           "SBI",
				DateColumn:         "Txn Date",
				DescriptionColumn:  "Description",
				ReferenceColumn:    "Ref No./Cheque No.",
				DebitColumn:        "Debit",
				CreditColumn:       "Credit",
				HasSeparateAmounts: true,
			},
			"Axis": {
				BankName:          "Axis",
				DateColumn:        "Transaction Date",
				DescriptionColumn: "Particulars",
				ReferenceColumn:   "Cheque No.",
				AmountColumn:      "Amount",
				DrCrColumn:        "Dr/Cr",
			},
			"Kotak": {
				BankName:           "Kotak",
				DateColumn:         "Date",
				DescriptionColumn:  "Description",
				ReferenceColumn:    "Ref No.",
				DebitColumn:        "Debit",
				CreditColumn:       "Credit",
				HasSeparateAmounts: true,
			},
		},
	}
}

// DetectBank detects the bank from statement headers
func DetectBank(headers []string) string {
	headerSet := make(map[string]bool)
	for _, h := range headers {
		headerSet[strings.ToLower(strings.TrimSpace(h))] = true
	}

	// HDFC detection
	if headerSet["narration"] && headerSet["withdrawal amt."] {
		return "HDFC"
	}

	// ICICI detection
	if headerSet["transaction remarks"] && headerSet["withdrawal amount (inr)"] {
		return "ICICI"
	}

	// SBI detection
	if headerSet["txn date"] && headerSet["description"] {
		return "SBI"
	}

	// Axis detection
	if headerSet["particulars"] && headerSet["dr/cr"] {
		return "Axis"
	}

	// Kotak detection (most generic, check last)
	if headerSet["date"] && headerSet["debit"] && headerSet["credit"] && headerSet["description"] {
		return "Kotak"
	}

	return "UNKNOWN"
}

// ParseDate parses date strings in multiple formats
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)

	dateFormats := []string{
		"02/01/2006",   // DD/MM/YYYY (HDFC, ICICI, Kotak)
		"2006-01-02",   // YYYY-MM-DD (ISO)
		"02-Jan-2006",  // DD-MMM-YYYY (SBI)
		"02 Jan 2006",  // DD MMM YYYY
		"02-01-2006",   // DD-MM-YYYY
		"02/01/06",     // DD/MM/YY (HDFC xls)
		"02-Jan-06",    // DD-MMM-YY
		"Jan 02, 2006", // MMM DD, YYYY
	}

	for _, format := range dateFormats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseAmount parses amount strings, handling currency symbols and commas
func ParseAmount(amountStr string) (float64, error) {
	cleaned := strings.ReplaceAll(amountStr, "₹", "")
	cleaned = strings.ReplaceAll(cleaned, "Rs.", "")
	cleaned = strings.ReplaceAll(cleaned, "Rs", "")
	cleaned = strings.ReplaceAll(cleaned, "INR", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" || cleaned == "-" {
		return 0, nil
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %s", amountStr)
	}

	return amount, nil
}

// Parse dispatches on the detected file type ("CSV" or "XLSX")
func (p *Parser) Parse(file io.Reader, fileType string) ([]models.RawRow, error) {
	switch fileType {
	case "CSV":
		return p.ParseCSV(file)
	case "XLSX":
		return p.ParseXLSX(file)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStatement, fileType)
	}
}

// ParseCSV extracts rows from a CSV statement
func (p *Parser) ParseCSV(file io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return p.parseRecords(records)
}

// ParseXLSX extracts rows from the first sheet of an XLSX statement
func (p *Parser) ParseXLSX(file io.Reader) ([]models.RawRow, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyStatement
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return p.parseRecords(records)
}

// findHeaderRow returns the index of the first row that matches a known bank
func findHeaderRow(records [][]string) (int, string) {
	for i, row := range records {
		if i >= headerScanLimit {
			break
		}
		if bank := DetectBank(row); bank != "UNKNOWN" {
			return i, bank
		}
	}
	return -1, "UNKNOWN"
}

func (p *Parser) parseRecords(records [][]string) ([]models.RawRow, error) {
	nonEmpty := 0
	for _, r := range records {
		if !isEmptyRow(r) {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil, ErrEmptyStatement
	}

	headerRow, bankName := findHeaderRow(records)
	if headerRow < 0 {
		return nil, ErrUnknownBank
	}
	schema := p.bankSchemas[bankName]

	headerIndex := make(map[string]int)
	for i, h := range records[headerRow] {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	rows := []models.RawRow{}
	skipped := 0
	for i := headerRow + 1; i < len(records); i++ {
		record := records[i]
		if isEmptyRow(record) || isSummaryRow(record) {
			continue
		}

		parsed, err := p.parseRow(record, headerIndex, schema)
		if err != nil {
			skipped++
			p.log.Debug().Err(err).Int("row", i+1).Str("bank", bankName).Msg("Skipping statement row")
			continue
		}
		rows = append(rows, parsed...)
	}

	p.log.Info().Str("bank", bankName).Int("rows", len(rows)).Int("skipped", skipped).Msg("Statement parsed")
	return rows, nil
}

func cell(row []string, headerIndex map[string]int, column string) string {
	if column == "" {
		return ""
	}
	idx, ok := headerIndex[strings.ToLower(column)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow turns one statement row into raw rows. A row carrying both a
// withdrawal and a deposit yields two rows, debit first.
func (p *Parser) parseRow(row []string, headerIndex map[string]int, schema models.BankSchema) ([]models.RawRow, error) {
	dateCell := cell(row, headerIndex, schema.DateColumn)
	if dateCell == "" || strings.Contains(dateCell, "*") {
		return nil, fmt.Errorf("masked or missing date %q", dateCell)
	}
	date, err := ParseDate(dateCell)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}

	base := models.RawRow{
		Date:        date.Format(models.DateLayout),
		Description: cell(row, headerIndex, schema.DescriptionColumn),
		Reference:   cell(row, headerIndex, schema.ReferenceColumn),
	}

	if schema.HasSeparateAmounts {
		debit, err := ParseAmount(cell(row, headerIndex, schema.DebitColumn))
		if err != nil {
			return nil, fmt.Errorf("failed to parse debit: %w", err)
		}
		credit, err := ParseAmount(cell(row, headerIndex, schema.CreditColumn))
		if err != nil {
			return nil, fmt.Errorf("failed to parse credit: %w", err)
		}

		var out []models.RawRow
		if debit > 0 {
			r := base
			r.Amount = debit
			r.Direction = models.DirectionDebit
			out = append(out, r)
		}
		if credit > 0 {
			r := base
			r.Amount = credit
			r.Direction = models.DirectionCredit
			out = append(out, r)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("both debit and credit are zero")
		}
		return out, nil
	}

	// Banks with single amount column and Dr/Cr indicator (Axis)
	amount, err := ParseAmount(cell(row, headerIndex, schema.AmountColumn))
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if amount < 0 {
		amount = -amount
	}

	drCr := strings.ToLower(cell(row, headerIndex, schema.DrCrColumn))
	switch drCr {
	case "dr":
		base.Direction = models.DirectionDebit
	case "cr":
		base.Direction = models.DirectionCredit
	default:
		return nil, fmt.Errorf("invalid Dr/Cr indicator: %s", drCr)
	}
	base.Amount = amount
	return []models.RawRow{base}, nil
}

// isEmptyRow checks if all fields in a row are empty
func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// isSummaryRow checks if a row is a summary row
func isSummaryRow(row []string) bool {
	if len(row) == 0 {
		return false
	}

	firstField := strings.ToLower(strings.TrimSpace(row[0]))
	summaryKeywords := []string{"total", "summary", "opening balance", "closing balance"}

	for _, keyword := range summaryKeywords {
		if strings.Contains(firstField, keyword) {
			return true
		}
	}

	return false
}
