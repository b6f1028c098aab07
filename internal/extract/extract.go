package extract

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"docqa/internal/domain"
)

// JPEG quality used for page renders and re-encoded uploads. The same bytes
// go to the captioning model and are retained for display.
const jpegQuality = 85

// FileExtractor reads PDFs and standalone image files from disk. PDF pages
// yield both their plain text and a rasterized render, so charts and layout
// survive even when text extraction misses them.
type FileExtractor struct {
	log *zap.Logger
}

func NewFileExtractor(log *zap.Logger) *FileExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileExtractor{log: log}
}

func (x *FileExtractor) Extract(path string) (domain.Extraction, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return x.extractPDF(path)
	case ".png", ".jpg", ".jpeg":
		return x.extractImage(path)
	default:
		return domain.Extraction{}, &domain.IngestionError{Path: path, Err: fmt.Errorf("unsupported file type %q", filepath.Ext(path))}
	}
}

func (x *FileExtractor) extractPDF(path string) (domain.Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Extraction{}, &domain.IngestionError{Path: path, Err: err}
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.Extraction{}, &domain.IngestionError{Path: path, Err: err}
	}

	var out domain.Extraction
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			x.log.Warn("page text extraction failed",
				zap.String("path", path), zap.Int("page", i), zap.Error(err))
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			out.Texts = append(out.Texts, domain.PageText{Page: i, Text: trimmed})
		}
	}

	// Rasterization failure degrades to a text-only extraction rather than
	// failing a file we could already read.
	out.Images = x.renderPages(path)

	if len(out.Texts) == 0 && len(out.Images) == 0 {
		return domain.Extraction{}, &domain.IngestionError{Path: path, Err: errors.New("no content extracted")}
	}
	return out, nil
}

func (x *FileExtractor) renderPages(path string) []domain.PageImage {
	doc, err := fitz.New(path)
	if err != nil {
		x.log.Warn("pdf rasterization failed", zap.String("path", path), zap.Error(err))
		return nil
	}
	defer doc.Close()

	var images []domain.PageImage
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.Image(n)
		if err != nil {
			x.log.Warn("page render failed", zap.String("path", path), zap.Int("page", n+1), zap.Error(err))
			continue
		}
		encoded, err := EncodeJPEG(img)
		if err != nil {
			x.log.Warn("page encode failed", zap.String("path", path), zap.Int("page", n+1), zap.Error(err))
			continue
		}
		images = append(images, domain.PageImage{Page: n + 1, JPEG: encoded})
	}
	return images
}

func (x *FileExtractor) extractImage(path string) (domain.Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Extraction{}, &domain.IngestionError{Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return domain.Extraction{}, &domain.IngestionError{Path: path, Err: err}
	}
	encoded, err := EncodeJPEG(img)
	if err != nil {
		return domain.Extraction{}, &domain.IngestionError{Path: path, Err: err}
	}
	return domain.Extraction{Images: []domain.PageImage{{Page: 1, JPEG: encoded}}}, nil
}

// EncodeJPEG renders an image to transport-safe JPEG bytes.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
