package service

import (
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/Kalyan1210/Resume-Analyzer/internal/errs"
)

// TextExtractor turns an uploaded document into plain UTF-8 text.
type TextExtractor interface {
	ExtractText(data []byte, filename string) (string, error)
}

// DocumentExtractor extracts text from PDF uploads via MuPDF and passes
// plain-text uploads through unchanged.
type DocumentExtractor struct {
	logger *zap.Logger
}

func NewDocumentExtractor(log *zap.Logger) *DocumentExtractor {
	return &DocumentExtractor{logger: log.With(zap.String("component", "extractor"))}
}

func (e *DocumentExtractor) ExtractText(data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", errs.New(errs.KindUnreadableDocument, "uploaded document is empty")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return e.extractPDF(data)
	case ".txt":
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", errs.New(errs.KindUnreadableDocument, "text file contains no text")
		}
		return text, nil
	default:
		return "", errs.New(errs.KindInvalidInput, "unsupported file type (use .pdf or .txt)")
	}
}

func (e *DocumentExtractor) extractPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", errs.Wrap(errs.KindUnreadableDocument, "failed to open PDF", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			e.logger.Warn("skipping unreadable page", zap.Int("page", n+1), zap.Error(err))
			continue
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n\n")
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errs.New(errs.KindUnreadableDocument, "no text extracted from PDF")
	}

	e.logger.Debug("extracted pdf text", zap.Int("pages", doc.NumPage()), zap.Int("chars", len(text)))

	return text, nil
}
