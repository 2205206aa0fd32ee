// Package chrome rasterizes posters by screenshotting their HTML rendering in
// headless Chrome.
package chrome

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"mars_poster/internal/adapters/observability"
	"mars_poster/internal/domain"
	"mars_poster/internal/layout"
)

// waitImages resolves once every <img> on the page has decoded or failed.
const waitImages = `() => Promise.all(Array.from(document.images).map(i => i.decode().catch(() => null)))`

type Rasterizer struct {
	controlURL string
	resolve    layout.ResolveFunc
	timeout    time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

// New connects lazily. An empty controlURL launches a local headless Chrome
// on first use. resolve must turn asset paths into URLs the page can load
// without a server, data URLs being the usual choice.
func New(controlURL string, resolve layout.ResolveFunc) *Rasterizer {
	return &Rasterizer{controlURL: controlURL, resolve: resolve, timeout: 30 * time.Second}
}

func (c *Rasterizer) Name() string { return "chrome" }

func (c *Rasterizer) connect() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser != nil {
		return c.browser, nil
	}
	url := c.controlURL
	if url == "" {
		u, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		url = u
	}
	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	log.Info().Str("control_url", url).Msg("chrome connected")
	c.browser = b
	return b, nil
}

// Rasterize renders p at DeviceScaleFactor scale and captures #poster.
func (c *Rasterizer) Rasterize(ctx context.Context, p domain.Poster, scale float64) ([]byte, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, domain.ErrBadScale
	}
	doc, err := layout.HTML(p, c.resolve)
	if err != nil {
		return nil, err
	}
	b, err := c.connect()
	if err != nil {
		return nil, err
	}

	page, err := b.Context(ctx).Timeout(c.timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             int(math.Ceil(p.Width)),
		Height:            int(math.Ceil(p.Height)),
		DeviceScaleFactor: scale,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetDocumentContent(string(doc)); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	if _, err := page.Eval(waitImages); err != nil {
		return nil, fmt.Errorf("wait images: %w", err)
	}
	el, err := page.Element("#poster")
	if err != nil {
		return nil, fmt.Errorf("find poster: %w", err)
	}
	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	observability.ObserveRender(c.Name(), int(p.LayoutID))
	return png, nil
}

func (c *Rasterizer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	return err
}
