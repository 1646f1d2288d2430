// Package receipt produces the printable acknowledgement handed to a
// citizen after a complaint is registered.
//
// HTML is always available. PDF output drives headless Chrome's print
// pipeline; when Chrome cannot be started the caller gets a
// ServiceUnavailableError and can fall back to the HTML.
package receipt

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"complaintdesk/internal/browser"
	"complaintdesk/internal/complaint"
	cderrors "complaintdesk/internal/errors"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Complaint {{.TicketID}}</title>
<style>
  body { font-family: "DejaVu Sans", Arial, sans-serif; color: #1e293b; margin: 40px; }
  h1 { color: #2563eb; font-size: 22px; margin-bottom: 4px; }
  .ticket { font-size: 28px; font-weight: bold; letter-spacing: 2px; margin: 16px 0; }
  table { border-collapse: collapse; width: 100%; }
  td { border: 1px solid #cbd5e1; padding: 8px 12px; vertical-align: top; }
  td.label { background: #f1f5f9; width: 30%; font-weight: bold; }
  .high { color: #dc2626; font-weight: bold; }
  footer { margin-top: 24px; font-size: 12px; color: #64748b; }
</style>
</head>
<body>
<h1>Complaint Registered</h1>
<div class="ticket">{{.TicketID}}</div>
<table>
  <tr><td class="label">Name</td><td>{{.Name}}</td></tr>
  <tr><td class="label">Mobile Number</td><td>{{.Mobile}}</td></tr>
  <tr><td class="label">Location</td><td>{{.Location}}</td></tr>
  <tr><td class="label">Complaint Type</td><td>{{.Type}}</td></tr>
  <tr><td class="label">Description</td><td>{{.Description}}</td></tr>
  <tr><td class="label">Assigned Department</td><td>{{.Department}}</td></tr>
  <tr><td class="label">Urgency</td><td class="{{if eq .UrgencyLevel "High"}}high{{end}}">{{.UrgencyLevel}}</td></tr>
  <tr><td class="label">Status</td><td>{{.Status}}</td></tr>
  <tr><td class="label">Registered</td><td>{{.Timestamp}}</td></tr>
</table>
<footer>Please quote the ticket ID in all correspondence about this complaint.</footer>
</body>
</html>
`))

// HTML renders the receipt page for rec. All values are escaped.
func HTML(rec complaint.Record) (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, rec); err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.String(), nil
}

// Printer turns receipts into PDFs with headless Chrome.
type Printer struct {
	browser *browser.Holder
	timeout time.Duration
	log     *slog.Logger
}

// NewPrinter creates a printer over a browser holder. timeout bounds each
// print, including Chrome start-up on the first call.
func NewPrinter(holder *browser.Holder, timeout time.Duration, log *slog.Logger) *Printer {
	if log == nil {
		log = slog.Default()
	}
	return &Printer{browser: holder, timeout: timeout, log: log}
}

// PDF renders rec as an A4 PDF.
//
// A failed print restarts the browser and is tried once more.
//
// Returns:
//   - []byte: PDF document
//   - error: ServiceUnavailableError when Chrome cannot print
func (p *Printer) PDF(ctx context.Context, rec complaint.Record) ([]byte, error) {
	doc, err := HTML(rec)
	if err != nil {
		return nil, err
	}

	pdf, err := p.print(ctx, p.browser.Get(), doc)
	if err == nil {
		return pdf, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.log.Warn("⚠️  Receipt print failed, retrying with a fresh browser", "ticket_id", rec.TicketID, "error", err)
	pdf, err = p.print(ctx, p.browser.Restart(), doc)
	if err != nil {
		return nil, cderrors.NewServiceUnavailableError("chrome", err)
	}
	return pdf, nil
}

func (p *Printer) print(ctx context.Context, browserCtx context.Context, doc string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(browserCtx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var fontsReady bool
	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.Evaluate(`document.fonts.ready.then(() => true)`, &fontsReady, func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
			return params.WithAwaitPromise(true)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			pdf = data
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to print receipt: %w", err)
	}
	return pdf, nil
}
