package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/sync/errgroup"
)

// pageBreak separates OCR'd pages in the concatenated result.
const pageBreak = "\n\n[End of Page]\n\n"

// TesseractOCR rasterizes each PDF page and runs tesseract on it. Pages
// are OCR'd in parallel up to workers at a time; results are reassembled
// in original page order, which retrieval correctness depends on.
type TesseractOCR struct {
	languages []string
	workers   int
}

var _ Strategy = (*TesseractOCR)(nil)

func NewTesseractOCR(languages []string, workers int) *TesseractOCR {
	if workers <= 0 {
		workers = 1
	}
	return &TesseractOCR{languages: languages, workers: workers}
}

func (s *TesseractOCR) Name() string { return "pdf-ocr" }

func (s *TesseractOCR) Extract(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("rasterize pdf: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return "", nil
	}

	// Rasterize sequentially; fitz documents are not safe for concurrent
	// page access. Only the tesseract stage fans out.
	rendered := make([][]byte, n)
	for i := 0; i < n; i++ {
		img, err := doc.Image(i)
		if err != nil {
			log.Printf("ocr: rendering page %d failed: %v", i+1, err)
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			log.Printf("ocr: encoding page %d failed: %v", i+1, err)
			continue
		}
		rendered[i] = buf.Bytes()
	}

	pages := make([]string, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < n; i++ {
		if rendered[i] == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := s.ocrImage(rendered[i])
			if err != nil {
				// A bad page degrades to empty text, the rest still count.
				log.Printf("ocr: tesseract error on page %d: %v", i+1, err)
				return nil
			}
			pages[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	parts := make([]string, 0, n)
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, pageBreak), nil
}

// ocrImage runs one page through a fresh tesseract client; gosseract
// clients are not safe to share across goroutines.
func (s *TesseractOCR) ocrImage(imgBytes []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(s.languages) > 0 {
		if err := client.SetLanguage(s.languages...); err != nil {
			return "", err
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(imgBytes); err != nil {
		return "", err
	}
	return client.Text()
}
