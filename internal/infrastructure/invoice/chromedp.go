package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultRenderTimeout = 30 * time.Second

// A4 in inches
const (
	a4Width  = 8.27
	a4Height = 11.69
	margin   = 0.4
)

// ErrRenderTimeout is returned when Chrome does not produce the PDF in time
var ErrRenderTimeout = errors.New("invoice: pdf rendering timed out")

// PDFConverter turns HTML documents into PDF through the Chrome DevTools
// protocol. One browser allocator is shared; every conversion opens a tab.
type PDFConverter struct {
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// PDFConverterOptions configures NewPDFConverter
type PDFConverterOptions struct {
	// RemoteURL is a running Chrome's DevTools websocket URL. Empty launches a
	// local headless browser on first use.
	RemoteURL string
	NoSandbox bool
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewPDFConverter creates the browser allocator. No browser is started
// until the first conversion.
func NewPDFConverter(opts PDFConverterOptions) *PDFConverter {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}

	c := &PDFConverter{timeout: timeout, logger: logger}
	if opts.RemoteURL != "" {
		c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
		return c
	}
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if opts.NoSandbox {
		flags = append(flags, chromedp.NoSandbox)
	}
	c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), flags...)
	return c
}

// Convert prints html to an A4 PDF
func (c *PDFConverter) Convert(ctx context.Context, html []byte) ([]byte, error) {
	if len(bytes.TrimSpace(html)) == 0 {
		return nil, errors.New("invoice: html is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			c.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()

	// stop the tab when the caller's deadline passes
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			pdf = data
			return err
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrRenderTimeout, c.timeout)
		}
		return nil, fmt.Errorf("invoice: chrome rendering failed: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("invoice: chrome produced an empty pdf")
	}
	c.logger.Debug("Invoice PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)),
	)
	return pdf, nil
}

// Close shuts the browser down
func (c *PDFConverter) Close() error {
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}
