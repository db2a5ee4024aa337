package slides

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageCount returns the number of pages of the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("count pages of %s: %w", path, err)
	}
	return n, nil
}

// ValidatePDF checks that path is a well-formed PDF.
func ValidatePDF(path string) error {
	if err := api.ValidateFile(path, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}
	return nil
}

// Info summarizes a deck.
type Info struct {
	Path  string
	Pages int
	Size  int64
}

// Inspect validates the deck at path and reports its size and page count.
func Inspect(path string) (*Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := ValidatePDF(path); err != nil {
		return nil, err
	}
	n, err := PageCount(path)
	if err != nil {
		return nil, err
	}
	return &Info{Path: path, Pages: n, Size: st.Size()}, nil
}

// DefaultTexts are the slide texts of the standard five-page fixture deck.
func DefaultTexts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Slide Number %d", i+1)
	}
	return out
}

// GenerateDeck writes a landscape deck with one page per text.
func GenerateDeck(path string, texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("generate deck: no slides")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("SkillTree test slides", true)
	pdf.SetAutoPageBreak(false, 0)
	w, h := pdf.GetPageSize()
	for i, text := range texts {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 36)
		pdf.SetXY(0, h/2-20)
		pdf.CellFormat(w, 20, text, "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 14)
		pdf.CellFormat(w, 10, fmt.Sprintf("%d / %d", i+1, len(texts)), "", 1, "C", false, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("generate deck: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write deck %s: %w", path, err)
	}
	return nil
}
