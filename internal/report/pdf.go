package report

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// renderPDF drives a headless Chrome instance to print htmlBytes to PDF:
// navigate to a data: URL, let layout settle, then page.PrintToPDF. The
// no-sandbox allocator flag is needed when running as root in CI.
func renderPDF(ctx context.Context, htmlBytes []byte) ([]byte, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("no-sandbox", true))...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	runCtx, runCancel := context.WithTimeout(taskCtx, 30*time.Second)
	defer runCancel()

	var pdfBytes []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("data:text/html,"+string(htmlBytes)),
		chromedp.Sleep(300*time.Millisecond), // let Chart.js finish its first paint before printing.
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBytes = data
			return nil
		}),
		// stream handle (second return value) is unused: PrintToPDF returns the
		// PDF inline as base64-decoded bytes unless WithTransferMode(ReturnAsStream)
		// is set, which we don't need for report-sized documents.
	)
	if err != nil {
		return nil, fmt.Errorf("report: printing pdf: %w", err)
	}
	return pdfBytes, nil
}
