package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/amalthea-hq/expensehub/internal/application/port"
)

// ParsedReceipt is the outcome of uploading a receipt: the extracted
// draft fields plus the storage path to reference on the expense.
type ParsedReceipt struct {
	Fields      *port.ReceiptFields `json:"fields"`
	ReceiptPath string              `json:"receipt_path"`
}

// ReceiptService stores uploaded receipts and extracts expense fields
// from them.
type ReceiptService interface {
	Parse(ctx context.Context, employeeID int64, filename string, data []byte) (*ParsedReceipt, error)
}

type receiptServiceImpl struct {
	storage   port.FileStorage
	extractor port.ReceiptExtractor
	logger    Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(storage port.FileStorage, extractor port.ReceiptExtractor, logger Logger) ReceiptService {
	return &receiptServiceImpl{
		storage:   storage,
		extractor: extractor,
		logger:    logger,
	}
}

// mimeTypes maps accepted upload extensions to their mime type
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// Parse stores the upload under a generated name and runs extraction.
// The file is kept even when extraction fails so the employee can still
// attach it and fill the fields by hand.
func (s *receiptServiceImpl) Parse(ctx context.Context, employeeID int64, filename string, data []byte) (*ParsedReceipt, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty receipt upload")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	mimeType, ok := mimeTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedReceipt, ext)
	}

	receiptPath := filepath.Join("receipts", fmt.Sprintf("%d", employeeID), uuid.NewString()+ext)
	if err := s.storage.Save(ctx, receiptPath, data); err != nil {
		return nil, err
	}

	fields, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		s.logger.Warnw("Receipt extraction failed",
			"employee_id", employeeID,
			"path", receiptPath,
			"error", err)
		return &ParsedReceipt{ReceiptPath: receiptPath}, nil
	}

	s.logger.Infow("Receipt parsed",
		"employee_id", employeeID,
		"path", receiptPath,
		"amount", fields.Amount,
		"currency", fields.CurrencyCode)

	return &ParsedReceipt{
		Fields:      fields,
		ReceiptPath: receiptPath,
	}, nil
}
