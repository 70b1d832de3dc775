package scraper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ysmood/gson"
)

// fakePage is what a fake site serves for one URL.
type fakePage struct {
	Title string
	HTML  string
}

// fakeTab is an in-memory Tab. Fields are set before use; one goroutine
// drives a tab at a time, like a real tab.
type fakeTab struct {
	site map[string]fakePage

	navErr     error
	navBlocks  bool          // Navigate waits for ctx to end
	navEntered chan struct{} // closed when Navigate starts, if set
	navGate    chan struct{} // Navigate waits for it to close, if set
	waitErr    error
	evalErr    error
	htmlErr    error
	closeErr   error
	cookieSeq  []string
	cookieCall int

	current     string
	readyCalled bool
	closed      atomic.Int32
}

func (t *fakeTab) Navigate(ctx context.Context, url string) error {
	if t.navBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	if t.navEntered != nil {
		close(t.navEntered)
	}
	if t.navGate != nil {
		select {
		case <-t.navGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if t.navErr != nil {
		return t.navErr
	}
	t.current = url
	return nil
}

func (t *fakeTab) WaitElement(ctx context.Context, _ string) error {
	return t.waitErr
}

func (t *fakeTab) Eval(ctx context.Context, js string) (gson.JSON, error) {
	if t.evalErr != nil {
		return gson.JSON{}, t.evalErr
	}
	page := t.site[t.current]
	switch js {
	case titleJS:
		return gson.New(page.Title), nil
	case bodyJS:
		return gson.New(page.HTML), nil
	case hrefJS:
		return gson.New(t.current), nil
	case readyJS:
		t.readyCalled = true
		return gson.New(true), nil
	}
	return gson.JSON{}, errors.New("unexpected script")
}

func (t *fakeTab) Cookies(ctx context.Context) (string, error) {
	if len(t.cookieSeq) == 0 {
		return "", nil
	}
	i := t.cookieCall
	if i >= len(t.cookieSeq) {
		i = len(t.cookieSeq) - 1
	}
	t.cookieCall++
	return t.cookieSeq[i], nil
}

func (t *fakeTab) HTML(ctx context.Context) (string, error) {
	if t.htmlErr != nil {
		return "", t.htmlErr
	}
	return t.site[t.current].HTML, nil
}

func (t *fakeTab) Close() error {
	t.closed.Add(1)
	return t.closeErr
}

// fakeBrowser hands out fakeTabs built by newTab.
type fakeBrowser struct {
	mu     sync.Mutex
	tabErr error
	newTab func() *fakeTab
	tabs   []*fakeTab
	closed atomic.Int32
}

func (b *fakeBrowser) NewTab() (Tab, error) {
	if b.tabErr != nil {
		return nil, b.tabErr
	}
	t := b.newTab()
	b.mu.Lock()
	b.tabs = append(b.tabs, t)
	b.mu.Unlock()
	return t, nil
}

func (b *fakeBrowser) Close() error {
	b.closed.Add(1)
	return nil
}

func (b *fakeBrowser) allTabs() []*fakeTab {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*fakeTab(nil), b.tabs...)
}

// sequenceLauncher returns each browser in turn and then errLaunch forever.
type sequenceLauncher struct {
	mu       sync.Mutex
	browsers []*fakeBrowser
	calls    int
}

var errLaunch = errors.New("launch failed")

func (l *sequenceLauncher) launch() (Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.calls > len(l.browsers) {
		return nil, errLaunch
	}
	return l.browsers[l.calls-1], nil
}

func siteTab(site map[string]fakePage) func() *fakeTab {
	return func() *fakeTab { return &fakeTab{site: site} }
}
