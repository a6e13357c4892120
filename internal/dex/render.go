package dex

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderHTML loads pageURL in headless Chrome, waits settle for scripts to
// fill the page, and returns the rendered document.
func RenderHTML(ctx context.Context, pageURL string, settle time.Duration) (string, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", pageURL, err)
	}
	return html, nil
}
