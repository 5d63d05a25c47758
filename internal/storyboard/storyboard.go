package storyboard

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/dstrelnikov/bookreel/internal/types"
)

// Generator renders a run as a printable storyboard: one page per scene
// with its illustration above the scene text.
type Generator struct{}

func New() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(run *types.PipelineRun, outPath string) error {
	if run == nil || len(run.Scenes) == 0 {
		return fmt.Errorf("no scenes to lay out")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure storyboard directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Storyboard %s", run.ID), false)
	pdf.SetAuthor("bookreel", false)

	for i, scene := range run.Scenes {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 16)
		pdf.Cell(0, 10, fmt.Sprintf("Scene %d of %d", scene.Index+1, len(run.Scenes)))
		pdf.Ln(14)

		if i < len(run.Slots) && len(run.Slots[i].Image) > 0 {
			g.placeImage(pdf, fmt.Sprintf("scene-%d", scene.Index), run.Slots[i].Image)
		}

		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 6, scene.Text, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write storyboard: %w", err)
	}
	return nil
}

// placeImage registers the scene illustration and draws it scaled to the
// page width. Undecodable images are skipped so a corrupt asset cannot sink
// the whole storyboard.
func (g *Generator) placeImage(pdf *gofpdf.Fpdf, name string, data []byte) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 {
		return
	}
	if !strings.EqualFold(format, "png") {
		return
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	drawW := pageW - left - right
	drawH := drawW * float64(cfg.Height) / float64(cfg.Width)

	pdf.ImageOptions(name, left, pdf.GetY(), drawW, drawH, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + drawH + 8)
}
