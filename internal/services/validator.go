package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ValidationResult contains the results of statement file validation
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	DetectedType string   `json:"detected_type"` // "CSV" or "XLSX"
	ContentType  string   `json:"content_type"`
	Size         int64    `json:"size"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	Data         []byte   `json:"-"`
}

// Err folds the validation errors into one ErrInvalidArgument, or nil when valid
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return invalidf("%s", strings.Join(r.Errors, "; "))
}

// FileValidator validates uploaded statements for security and format compliance
type FileValidator struct {
	maxSizeBytes int64
	allowedTypes map[string]bool
	magicBytes   map[string][]byte
}

// File magic bytes signatures
var fileMagicBytes = map[string][]byte{
	"CSV":  []byte(""),               // CSV has no magic bytes, text-based
	"XLSX": {0x50, 0x4B, 0x03, 0x04}, // ZIP signature (XLSX is a ZIP)
}

var csvMimeTypes = map[string]bool{
	"text/csv":        true,
	"application/csv": true,
	"text/plain":      true,
}

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Allowed MIME types for statement uploads
var allowedMimeTypes = map[string]bool{
	"text/csv":        true,
	"application/csv": true,
	"text/plain":      true,
	xlsxMimeType:      true,
}

// Allowed file extensions
var allowedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// NewFileValidator creates a new file validator with the specified maximum file size
func NewFileValidator(maxSizeBytes int64) *FileValidator {
	return &FileValidator{
		maxSizeBytes: maxSizeBytes,
		allowedTypes: allowedMimeTypes,
		magicBytes:   fileMagicBytes,
	}
}

// ValidateFile validates an uploaded statement. The content is read at most
// one byte past the size limit and kept in the result for parsing.
func (v *FileValidator) ValidateFile(reader io.Reader, filename, contentType string) (*ValidationResult, error) {
	contentType = normalizeContentType(contentType)
	result := &ValidationResult{
		Valid:       true,
		ContentType: contentType,
		Errors:      []string{},
		Warnings:    []string{},
	}

	if err := v.ValidateFilename(filename); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	if err := v.ValidateMimeType(contentType); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	data, err := io.ReadAll(io.LimitReader(reader, v.maxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	result.Size = int64(len(data))
	if err := v.ValidateFileSize(result.Size); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	detectedType, err := v.ValidateMagicBytes(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	} else {
		result.DetectedType = detectedType

		if !v.isContentTypeMatch(contentType, detectedType) {
			result.Valid = false
			result.Errors = append(result.Errors, "MIME type does not match file content")
		}
		if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && ext != "."+strings.ToLower(detectedType) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("extension %s does not match detected type %s", ext, detectedType))
		}
	}

	if result.Valid {
		result.Data = data
	}
	return result, nil
}

// normalizeContentType drops parameters such as "; charset=utf-8"
func normalizeContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// ValidateFilename validates the filename for security issues
func (v *FileValidator) ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename cannot be empty")
	}

	if strings.Contains(filename, "..") {
		return errors.New("filename contains path traversal")
	}

	if strings.Contains(filename, "\x00") {
		return errors.New("filename contains null bytes")
	}

	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return errors.New("filename cannot be absolute path")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return errors.New("filename must have an extension")
	}

	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file extension: %s", ext)
	}

	return nil
}

// ValidateMimeType validates the MIME type is allowed
func (v *FileValidator) ValidateMimeType(contentType string) error {
	if contentType == "" {
		return errors.New("MIME type cannot be empty")
	}

	if !v.allowedTypes[normalizeContentType(contentType)] {
		return fmt.Errorf("unsupported MIME type: %s", contentType)
	}

	return nil
}

// ValidateMagicBytes detects and validates file type based on magic bytes
func (v *FileValidator) ValidateMagicBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}

	if bytes.HasPrefix(data, v.magicBytes["XLSX"]) {
		return "XLSX", nil
	}

	// CSV detection: text-based file without binary magic bytes
	if v.isTextContent(data) {
		return "CSV", nil
	}

	return "", errors.New("unsupported file type based on content")
}

// ValidateFileSize validates the file size is within limits
func (v *FileValidator) ValidateFileSize(size int64) error {
	if size < 0 {
		return errors.New("invalid file size")
	}

	if size == 0 {
		return errors.New("empty file")
	}

	if size > v.maxSizeBytes {
		return fmt.Errorf("file size exceeds maximum allowed size (%d bytes)", v.maxSizeBytes)
	}

	return nil
}

// isContentTypeMatch checks if the MIME type matches the detected file type
func (v *FileValidator) isContentTypeMatch(contentType, detectedType string) bool {
	switch detectedType {
	case "CSV":
		return csvMimeTypes[contentType]
	case "XLSX":
		return contentType == xlsxMimeType
	default:
		return false
	}
}

// isTextContent checks if the data appears to be text (for CSV detection)
func (v *FileValidator) isTextContent(data []byte) bool {
	sample := data[:min(len(data), 512)]

	// Text files shouldn't have null bytes
	if bytes.Contains(sample, []byte{0x00}) {
		return false
	}

	// Count printable characters
	printable := 0
	for _, b := range sample {
		// Printable ASCII + common whitespace (tab, newline, carriage return)
		if (b >= 0x20 && b <= 0x7E) || b == 0x09 || b == 0x0A || b == 0x0D {
			printable++
		}
	}

	// If more than 95% of characters are printable, consider it text
	return float64(printable)/float64(len(sample)) > 0.95
}
