package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"cvbuilder/internal/config"
)

const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	mmPerInch      = 25.4
)

var ErrEmptyDocument = errors.New("html document is empty")

// Renderer 把独立 HTML 打印为 PDF。
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

const (
	healthCheckTimeout = 5 * time.Second
	pageCloseTimeout   = 5 * time.Second
)

// RodRenderer 使用 go-rod 在无头 Chromium 中打印 A4 PDF。
// 浏览器在首次渲染时启动，之后每次渲染只新建一个页面；连接断开时重新启动一次。
type RodRenderer struct {
	logger   *slog.Logger
	bin      string
	timeout  time.Duration
	marginMM float64

	start func() (*rod.Browser, *launcher.Launcher, error)
	print func(ctx context.Context, browser *rod.Browser, html string) ([]byte, error)
	alive func(browser *rod.Browser) bool

	mu      sync.Mutex
	launch  *launcher.Launcher
	browser *rod.Browser
}

// NewRodRenderer 创建渲染器，不会立即启动浏览器。
func NewRodRenderer(cfg config.PDFConfig, logger *slog.Logger) *RodRenderer {
	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := &RodRenderer{
		logger:   logger,
		bin:      strings.TrimSpace(cfg.BrowserBin),
		timeout:  timeout,
		marginMM: cfg.MarginMM,
		alive:    browserAlive,
	}
	r.start = r.launchBrowser
	r.print = r.printPage
	return r
}

// PrintOptions 返回 A4 纸张与页边距参数。
func PrintOptions(marginMM float64) *proto.PagePrintToPDF {
	margin := marginMM / mmPerInch
	return &proto.PagePrintToPDF{
		PrintBackground:   true,
		PaperWidth:        float64Ptr(a4WidthInches),
		PaperHeight:       float64Ptr(a4HeightInches),
		MarginTop:         float64Ptr(margin),
		MarginBottom:      float64Ptr(margin),
		MarginLeft:        float64Ptr(margin),
		MarginRight:       float64Ptr(margin),
		PreferCSSPageSize: true,
	}
}

// Render 在隔离页面中加载 HTML 并打印。
// 打印失败且浏览器已无响应时，丢弃旧浏览器并在新进程中重试一次。
func (r *RodRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	data, err := r.print(ctx, browser, html)
	if err == nil || ctx.Err() != nil || r.alive(browser) {
		return data, err
	}

	r.logger.Warn("chromium connection lost, relaunching", slog.Any("error", err))
	r.resetBrowser(browser)

	browser, err = r.ensureBrowser()
	if err != nil {
		return nil, err
	}
	return r.print(ctx, browser, html)
}

func (r *RodRenderer) printPage(ctx context.Context, browser *rod.Browser, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		// ctx 可能已超时，关闭页面用独立的 context。
		closeCtx, cancelClose := context.WithTimeout(context.Background(), pageCloseTimeout)
		defer cancelClose()
		_ = page.Context(closeCtx).Close()
	}()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if err := (proto.EmulationSetEmulatedMedia{Media: "print"}).Call(page); err != nil {
		return nil, fmt.Errorf("set emulated media to print: %w", err)
	}

	reader, err := page.PDF(PrintOptions(r.marginMM))
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}

func browserAlive(browser *rod.Browser) bool {
	_, err := browser.Timeout(healthCheckTimeout).Version()
	return err == nil
}

func (r *RodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	browser, launch, err := r.start()
	if err != nil {
		return nil, err
	}
	r.launch = launch
	r.browser = browser
	return browser, nil
}

func (r *RodRenderer) launchBrowser() (*rod.Browser, *launcher.Launcher, error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	if r.bin != "" {
		launch = launch.Bin(r.bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		launch.Cleanup()
		return nil, nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		launch.Kill()
		launch.Cleanup()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	r.logger.Info("chromium launched for pdf export", slog.String("control_url", browserURL))
	return browser, launch, nil
}

// resetBrowser 丢弃已失效的浏览器。stale 已被其他请求替换时什么也不做。
func (r *RodRenderer) resetBrowser(stale *rod.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != stale {
		return
	}
	if r.launch != nil {
		r.launch.Kill()
		r.launch.Cleanup()
	}
	r.browser = nil
	r.launch = nil
}

// Close 关闭浏览器进程。
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if r.launch != nil {
		r.launch.Cleanup()
	}
	r.browser = nil
	r.launch = nil
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

func float64Ptr(v float64) *float64 {
	return &v
}
