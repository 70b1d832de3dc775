package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/ragsvc/config"
	"github.com/ysmood/gson"
)

// desktopUserAgent is sent by every tab. It is fixed for the process lifetime.
const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Browser is one live browser process that can open tabs.
type Browser interface {
	NewTab() (Tab, error)
	Close() error
}

// Tab is a single browsing context used for one navigation.
// Every method except Close is bound to ctx.
type Tab interface {
	Navigate(ctx context.Context, url string) error
	WaitElement(ctx context.Context, selector string) error
	Eval(ctx context.Context, js string) (gson.JSON, error)
	Cookies(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Launcher starts a browser process. Calling it again yields a fresh,
// identically configured process.
type Launcher func() (Browser, error)

// RodLauncher returns a Launcher that starts headless Chromium through go-rod.
func RodLauncher(cfg config.BrowserConfig) Launcher {
	return func() (Browser, error) {
		return launchRod(cfg)
	}
}

func launchRod(cfg config.BrowserConfig) (*rodBrowser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Fixed launch flags ───────────────────────────────────────────
	l.Set(flags.Flag("window-size"), "1280,800")
	l.Set(flags.Flag("user-agent"), desktopUserAgent)
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "VizDisplayCompositor")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, err
	}

	return &rodBrowser{
		browser:  b,
		launcher: l,
		stealth:  cfg.Stealth,
		blocked:  cfg.BlockedResourceTypes,
		blockAds: cfg.BlockAds,
	}, nil
}

// rodBrowser owns one Chromium process.
type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	stealth  bool
	blocked  []string
	blockAds bool
}

func (b *rodBrowser) NewTab() (Tab, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if b.stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	return &rodTab{
		page:   page,
		router: setupHijack(page, b.blocked, b.blockAds),
	}, nil
}

// Close disconnects and kills the process. It is safe on a dead browser.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

// rodTab keeps the context-free page so Close works after cancellation.
type rodTab struct {
	page   *rod.Page
	router *rod.HijackRouter
}

func (t *rodTab) Navigate(ctx context.Context, url string) error {
	return t.page.Context(ctx).Navigate(url)
}

func (t *rodTab) WaitElement(ctx context.Context, selector string) error {
	_, err := t.page.Context(ctx).Element(selector)
	return err
}

func (t *rodTab) Eval(ctx context.Context, js string) (gson.JSON, error) {
	res, err := t.page.Context(ctx).Eval(js)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

func (t *rodTab) Cookies(ctx context.Context) (string, error) {
	cookies, err := t.page.Context(ctx).Cookies(nil)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), nil
}

func (t *rodTab) HTML(ctx context.Context) (string, error) {
	return t.page.Context(ctx).HTML()
}

func (t *rodTab) Close() error {
	if t.router != nil {
		_ = t.router.Stop()
	}
	return t.page.Close()
}
