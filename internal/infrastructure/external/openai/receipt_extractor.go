package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/application/port"
)

// ReceiptExtractor implements port.ReceiptExtractor using the OpenAI
// Vision API. PDF receipts are rasterized page by page before upload;
// image receipts go through unchanged.
type ReceiptExtractor struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewReceiptExtractor creates a new Vision-backed receipt extractor
func NewReceiptExtractor(apiKey, model string, temperature float32, logger *zap.Logger) *ReceiptExtractor {
	return &ReceiptExtractor{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

// extractedReceipt mirrors the JSON shape requested in the prompt
type extractedReceipt struct {
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currency_code"`
	Category     string  `json:"category"`
	ExpenseDate  string  `json:"expense_date"`
	Description  string  `json:"description"`
	Remarks      string  `json:"remarks"`
}

// Extract parses a receipt into structured expense fields
func (e *ReceiptExtractor) Extract(ctx context.Context, fileData []byte, mimeType string) (*port.ReceiptFields, error) {
	e.logger.Info("Extracting receipt data with Vision API",
		zap.String("mime_type", mimeType),
		zap.Int("size_bytes", len(fileData)))

	images, imageMime, err := e.prepareImages(fileData, mimeType)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no pages extracted from receipt")
	}

	contentParts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: receiptVisionPrompt,
		},
	}
	for _, imgData := range images {
		contentParts = append(contentParts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", imageMime, base64.StdEncoding.EncodeToString(imgData)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		MaxTokens:   1024,
		Temperature: e.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert in reading receipts and invoices from any country. You read amounts, currencies and dates with perfect accuracy. Always respond with valid JSON.",
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: contentParts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("Vision API call failed", zap.Error(err))
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from Vision API")
	}

	content := resp.Choices[0].Message.Content

	var extracted extractedReceipt
	if err := json.Unmarshal([]byte(content), &extracted); err != nil {
		e.logger.Error("Failed to parse Vision API response",
			zap.Error(err),
			zap.String("content", content))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	e.logger.Info("Receipt data extracted",
		zap.Float64("amount", extracted.Amount),
		zap.String("currency", extracted.CurrencyCode),
		zap.String("date", extracted.ExpenseDate))

	return &port.ReceiptFields{
		Amount:       extracted.Amount,
		CurrencyCode: extracted.CurrencyCode,
		Category:     extracted.Category,
		ExpenseDate:  extracted.ExpenseDate,
		Description:  extracted.Description,
		Remarks:      extracted.Remarks,
	}, nil
}

// maxReceiptPages bounds Vision API cost for multi-page PDFs
const maxReceiptPages = 2

// prepareImages returns the receipt as one or more JPEG pages plus the
// mime type to report upstream. Non-PDF input passes through untouched.
func (e *ReceiptExtractor) prepareImages(fileData []byte, mimeType string) ([][]byte, string, error) {
	if mimeType != "application/pdf" {
		return [][]byte{fileData}, mimeType, nil
	}

	images, err := e.rasterizePDF(fileData)
	if err != nil {
		return nil, "", fmt.Errorf("failed to convert PDF: %w", err)
	}
	return images, "image/jpeg", nil
}

func (e *ReceiptExtractor) rasterizePDF(pdfData []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount > maxReceiptPages {
		pageCount = maxReceiptPages
	}

	var images [][]byte
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		img, err := doc.Image(pageNum)
		if err != nil {
			e.logger.Warn("Failed to extract page as image",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			e.logger.Warn("Failed to encode page to JPEG",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		images = append(images, buf.Bytes())
	}

	return images, nil
}

// Verify interface compliance
var _ port.ReceiptExtractor = (*ReceiptExtractor)(nil)
