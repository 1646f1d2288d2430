// Package summary renders the open tickets as a PNG table.
//
// The image is meant for a quick glance at the backlog (or for posting to a
// chat), so it shows only the columns an officer needs to act on a ticket.
package summary

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/fogleman/gg"

	"complaintdesk/internal/complaint"
)

// Layout constants, drawn at 2x for legibility when scaled down
const (
	cellPadX      = 20
	cellPadY      = 16
	minRowHeight  = 76
	headerHeight  = 88
	bodyFontSize  = 26
	titleFontSize = 40
	titleBand     = 110
	footerBand    = 80
	margin        = 40
	minColWidth   = 110
)

var (
	backgroundColor = color.RGBA{R: 245, G: 247, B: 250, A: 255}
	titleColor      = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	headerFill      = color.RGBA{R: 37, G: 99, B: 235, A: 255}
	headerText      = color.White
	rowFills        = [2]color.Color{color.White, color.RGBA{R: 241, G: 245, B: 249, A: 255}}
	bodyText        = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	gridColor       = color.RGBA{R: 203, G: 213, B: 225, A: 255}
	footerText      = color.RGBA{R: 100, G: 116, B: 139, A: 255}
	highUrgency     = color.RGBA{R: 220, G: 38, B: 38, A: 255}
)

type column struct {
	header   string
	value    func(r *complaint.Record) string
	maxWidth float64 // 0 = fit content
}

var columns = []column{
	{"Ticket ID", func(r *complaint.Record) string { return r.TicketID }, 0},
	{"Name", func(r *complaint.Record) string { return r.Name }, 0},
	{"Mobile", func(r *complaint.Record) string { return r.Mobile }, 0},
	{"Location", func(r *complaint.Record) string { return r.Location }, 360},
	{"Type", func(r *complaint.Record) string { return r.Type }, 240},
	{"Department", func(r *complaint.Record) string { return r.Department }, 300},
	{"Urgency", func(r *complaint.Record) string { return r.UrgencyLevel }, 0},
	{"Date", func(r *complaint.Record) string { return dateOf(r.Timestamp) }, 0},
}

// Renderer draws the table. The zero value is not usable; call NewRenderer.
type Renderer struct {
	Title string
	Now   func() time.Time

	boldFont    string
	regularFont string
}

// NewRenderer locates system fonts. When none are found the renderer falls
// back to gg's built-in bitmap face.
func NewRenderer(title string) *Renderer {
	return &Renderer{
		Title:       title,
		Now:         time.Now,
		boldFont:    findFont(true),
		regularFont: findFont(false),
	}
}

// HasFonts reports whether TrueType fonts were found.
func (r *Renderer) HasFonts() bool {
	return r.boldFont != "" && r.regularFont != ""
}

// RenderOpenTickets draws the open tickets among records, oldest first,
// and returns PNG bytes.
func (r *Renderer) RenderOpenTickets(records []complaint.Record) ([]byte, error) {
	open := OpenTickets(records)
	if len(open) == 0 {
		return nil, fmt.Errorf("no open tickets to render")
	}

	measure := gg.NewContext(1, 1)
	widths, err := r.columnWidths(measure, open)
	if err != nil {
		return nil, err
	}
	heights := rowHeights(measure, open, widths)

	tableWidth := sum(widths)
	bodyHeight := sum(heights)
	width := tableWidth + 2*margin
	height := titleBand + headerHeight + bodyHeight + footerBand

	dc := gg.NewContext(int(width), int(height))
	dc.SetColor(backgroundColor)
	dc.Clear()

	r.face(dc, true, titleFontSize)
	dc.SetColor(titleColor)
	title := fmt.Sprintf("%s  |  %s", r.Title, r.Now().Format("02 Jan 2006, 03:04 PM"))
	dc.DrawStringAnchored(title, width/2, titleBand/2, 0.5, 0.5)

	top := float64(titleBand)
	r.drawHeader(dc, top, widths)
	r.drawRows(dc, top+headerHeight, open, widths, heights)

	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(margin, top, tableWidth, headerHeight+bodyHeight, 16)
	dc.Stroke()
	dc.SetLineWidth(0.5)
	x := float64(margin)
	for _, w := range widths[:len(widths)-1] {
		x += w
		dc.DrawLine(x, top+headerHeight, x, top+headerHeight+bodyHeight)
		dc.Stroke()
	}

	r.face(dc, false, 24)
	dc.SetColor(footerText)
	dc.DrawStringAnchored(fmt.Sprintf("Total: %d open tickets", len(open)), width/2, height-30, 0.5, 0.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// OpenTickets filters records to status Open, sorted by timestamp then ID.
func OpenTickets(records []complaint.Record) []complaint.Record {
	var open []complaint.Record
	for _, rec := range records {
		if rec.IsOpen() {
			open = append(open, rec)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		if open[i].Timestamp != open[j].Timestamp {
			return open[i].Timestamp < open[j].Timestamp
		}
		return open[i].TicketID < open[j].TicketID
	})
	return open
}

func (r *Renderer) drawHeader(dc *gg.Context, top float64, widths []float64) {
	dc.SetColor(headerFill)
	dc.DrawRoundedRectangle(margin, top, sum(widths), headerHeight, 16)
	dc.Fill()

	r.face(dc, true, bodyFontSize)
	dc.SetColor(headerText)
	x := float64(margin)
	for i, col := range columns {
		dc.DrawStringAnchored(col.header, x+widths[i]/2, top+headerHeight/2, 0.5, 0.5)
		x += widths[i]
	}
}

func (r *Renderer) drawRows(dc *gg.Context, top float64, records []complaint.Record, widths, heights []float64) {
	r.face(dc, false, bodyFontSize)
	lineH, spacing := lineMetrics(dc)

	y := top
	for i := range records {
		rec := &records[i]
		h := heights[i]

		dc.SetColor(rowFills[i%2])
		dc.DrawRectangle(margin, y, sum(widths), h)
		dc.Fill()

		dc.SetColor(gridColor)
		dc.SetLineWidth(0.5)
		dc.DrawLine(margin, y+h, margin+sum(widths), y+h)
		dc.Stroke()

		x := float64(margin)
		for c, col := range columns {
			if col.header == "Urgency" && rec.UrgencyLevel == "High" {
				dc.SetColor(highUrgency)
			} else {
				dc.SetColor(bodyText)
			}
			lines := wrapText(dc, col.value(rec), widths[c]-cellPadX*2)
			baseline := y + (h-float64(len(lines))*spacing)/2 + lineH
			for n, line := range lines {
				dc.DrawString(line, x+cellPadX, baseline+float64(n)*spacing)
			}
			x += widths[c]
		}
		y += h
	}
}

// columnWidths fits each column to its widest cell, within its cap.
func (r *Renderer) columnWidths(dc *gg.Context, records []complaint.Record) ([]float64, error) {
	widths := make([]float64, len(columns))

	if err := r.face(dc, true, bodyFontSize); err != nil {
		return nil, err
	}
	for i, col := range columns {
		w, _ := dc.MeasureString(col.header)
		widths[i] = max(w+cellPadX*2+4, minColWidth)
	}

	if err := r.face(dc, false, bodyFontSize); err != nil {
		return nil, err
	}
	for i := range records {
		for c, col := range columns {
			w, _ := dc.MeasureString(col.value(&records[i]))
			widths[c] = max(widths[c], w+cellPadX*2+4)
		}
	}

	for i, col := range columns {
		if col.maxWidth > 0 {
			widths[i] = min(widths[i], col.maxWidth)
		}
	}
	return widths, nil
}

func rowHeights(dc *gg.Context, records []complaint.Record, widths []float64) []float64 {
	_, spacing := lineMetrics(dc)
	heights := make([]float64, len(records))
	for i := range records {
		lines := 1
		for c, col := range columns {
			lines = max(lines, len(wrapText(dc, col.value(&records[i]), widths[c]-cellPadX*2)))
		}
		heights[i] = max(float64(lines)*spacing+cellPadY*2, minRowHeight)
	}
	return heights
}

// face loads the requested TrueType face, or leaves gg's default face when
// no font file was found.
func (r *Renderer) face(dc *gg.Context, bold bool, size float64) error {
	path := r.regularFont
	if bold {
		path = r.boldFont
	}
	if path == "" {
		return nil
	}
	if err := dc.LoadFontFace(path, size); err != nil {
		return fmt.Errorf("failed to load font %s: %w", path, err)
	}
	return nil
}

func lineMetrics(dc *gg.Context) (lineH, spacing float64) {
	_, lineH = dc.MeasureString("Ay")
	return lineH, lineH + 4
}

// wrapText breaks text on spaces so each line fits in maxWidth.
func wrapText(dc *gg.Context, text string, maxWidth float64) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if maxWidth <= 0 {
		return []string{text}
	}
	if w, _ := dc.MeasureString(text); w <= maxWidth {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if w, _ := dc.MeasureString(line + " " + word); w > maxWidth {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}

// dateOf keeps the date part of a ledger timestamp.
func dateOf(ts string) string {
	if t, err := time.Parse(complaint.TimestampLayout, ts); err == nil {
		return t.Format("02 Jan 2006")
	}
	return ts
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// findFont returns the first DejaVu/Arial file present, or "".
func findFont(bold bool) string {
	var candidates []string
	switch runtime.GOOS {
	case "windows":
		root := os.Getenv("WINDIR")
		if root == "" {
			root = `C:\Windows`
		}
		name := `arial.ttf`
		if bold {
			name = `arialbd.ttf`
		}
		candidates = []string{root + `\Fonts\` + name}
	case "darwin":
		name := "Arial.ttf"
		if bold {
			name = "Arial Bold.ttf"
		}
		candidates = []string{
			"/System/Library/Fonts/Supplemental/" + name,
			"/Library/Fonts/" + name,
		}
	default:
		name := "DejaVuSans.ttf"
		if bold {
			name = "DejaVuSans-Bold.ttf"
		}
		candidates = []string{
			"/usr/share/fonts/truetype/dejavu/" + name,
			"/usr/share/fonts/TTF/" + name,
			"/usr/share/fonts/dejavu/" + name,
		}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
