package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/mamadbah2/salesboard/internal/domain/models"
)

const (
	pdfMargin    = 40.0
	pdfRowHeight = 14.0
)

var pdfColumns = []float64{60, 165, 65, 45, 80, 100}

func (s *Service) headers() []string {
	return []string{"Attr #", "Name", "Price", "Qty", "Total", "Total –" + s.format.DiscountLabel()[1:]}
}

// RenderPDF draws the report as a portrait A4 document: title, grand totals,
// then one table per day with a "Day total" footer.
func (s *Service) RenderPDF(report models.MonthlyReport) ([]byte, error) {
	if len(report.Days) == 0 {
		return nil, ErrNoData
	}
	f := s.format

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 22, tr(report.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 16, tr("Grand total: "+f.Total(report.GrandTotal)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 16, tr("Grand total "+f.Discounted(report.GrandDiscounted)), "", 1, "L", false, 0, "")
	pdf.Ln(12)

	headers := s.headers()
	for _, day := range report.Days {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 18, tr(day.Label), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(40, 100, 200)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range headers {
			pdf.CellFormat(pdfColumns[i], pdfRowHeight, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
		for _, line := range day.Lines {
			cells := []string{
				line.AttrNumber,
				line.Name,
				f.Price(line.Price),
				f.Qty(line.Qty),
				f.Total(line.Total),
				f.Discounted(line.Discounted),
			}
			for i, c := range cells {
				pdf.CellFormat(pdfColumns[i], pdfRowHeight, tr(c), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}

		pdf.SetFont("Helvetica", "B", 8)
		span := pdfColumns[0] + pdfColumns[1] + pdfColumns[2] + pdfColumns[3]
		pdf.CellFormat(span, pdfRowHeight, "Day total", "1", 0, "R", false, 0, "")
		pdf.CellFormat(pdfColumns[4], pdfRowHeight, tr(f.Total(day.Total)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColumns[5], pdfRowHeight, tr(f.Discounted(day.Discounted)), "1", 1, "L", false, 0, "")
		pdf.Ln(24)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf %s: %w", report.Month, err)
	}
	return buf.Bytes(), nil
}

// RenderCSV writes the same content as the PDF, one row per line, with a day
// total row after each day and the grand totals last.
func (s *Service) RenderCSV(report models.MonthlyReport) ([]byte, error) {
	if len(report.Days) == 0 {
		return nil, ErrNoData
	}
	f := s.format

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{append([]string{"Day"}, s.headers()...)}
	for _, day := range report.Days {
		for _, line := range day.Lines {
			rows = append(rows, []string{
				day.Label,
				line.AttrNumber,
				line.Name,
				f.Price(line.Price),
				f.Qty(line.Qty),
				f.Total(line.Total),
				f.Discounted(line.Discounted),
			})
		}
		rows = append(rows, []string{day.Label, "", "", "", "Day total", f.Total(day.Total), f.Discounted(day.Discounted)})
	}
	rows = append(rows, []string{"Grand total", "", "", "", "", f.Total(report.GrandTotal), f.Discounted(report.GrandDiscounted)})

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("render csv %s: %w", report.Month, err)
	}
	return buf.Bytes(), nil
}
