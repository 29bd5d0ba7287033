package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"lasercode"
	"lasercode/logging"
	"lasercode/preview"
)

const version = "0.2.0"

// Globals – flags shared by every command. Geometry flags override the config file.
type Globals struct {
	Config    string   `short:"c" help:"YAML file with target geometry" type:"existingfile"`
	Width     *float64 `help:"Target barcode width, mm (default 45)"`
	Height    *float64 `help:"Target line height, mm (default 16)"`
	PadX      *float64 `name:"pad-x" help:"Horizontal padding, mm (default 5)"`
	PadY      *float64 `name:"pad-y" help:"Vertical padding, mm (default 5)"`
	LogLevel  string   `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string   `name:"log-format" default:"text" enum:"text,json" help:"Log format"`
}

var cli struct {
	Globals

	Generate GenerateCmd `cmd:"" help:"Encode text and write it as a line barcode SVG"`
	Reformat ReformatCmd `cmd:"" help:"Convert an existing rectangle barcode SVG into lines"`
	Serve    ServeCmd    `cmd:"" help:"Run the HTTP daemon"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("lasercode"),
		kong.Description("Barcodes as parallel lines for laser cutters."),
		kong.UsageOnError(),
	)
	if _, err := logging.Init(os.Stderr, cli.LogLevel, cli.LogFormat); err != nil {
		ctx.FatalIfErrorf(err)
	}
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

// config – defaults, then the config file, then explicit flags.
func (g *Globals) config() (lasercode.Config, error) {
	cfg := lasercode.DefaultConfig()
	if g.Config != "" {
		var err error
		if cfg, err = lasercode.LoadConfig(g.Config); err != nil {
			return lasercode.Config{}, err
		}
	}
	if g.Width != nil {
		cfg.Width = *g.Width
	}
	if g.Height != nil {
		cfg.Height = *g.Height
	}
	if g.PadX != nil {
		cfg.PadX = *g.PadX
	}
	if g.PadY != nil {
		cfg.PadY = *g.PadY
	}
	return cfg, cfg.Validate()
}

// ---------- generate ----------

// GenerateCmd encodes a payload and saves the line SVG.
type GenerateCmd struct {
	Text      string `arg:"" help:"Text to encode"`
	Output    string `short:"o" default:"barcode.svg" type:"path" help:"Output SVG file"`
	Symbology string `short:"s" default:"code39" enum:"code39,code93,code128,codabar,ean,2of5,i2of5" help:"Barcode symbology"`
	Checksum  bool   `help:"Append the optional check character"`
	FullASCII bool   `name:"full-ascii" help:"Full ASCII mode (code39, code93)"`
	Preview   string `type:"path" help:"Also write a PNG preview here"`
}

func (c *GenerateCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	canvas, err := lasercode.GenerateFile(c.Text, c.Output, cfg, c.options()...)
	if err != nil {
		return err
	}
	return writePreview(canvas, c.Preview)
}

func (c *GenerateCmd) options() []string {
	opts := []string{c.Symbology}
	if c.Checksum {
		opts = append(opts, "checksum")
	}
	if c.FullASCII {
		opts = append(opts, "fullascii")
	}
	return opts
}

func writePreview(canvas *lasercode.Canvas, path string) error {
	if path == "" {
		return nil
	}
	img, err := preview.Render(canvas, preview.DefaultPxPerMM)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	if err := preview.WritePNG(f, img); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close preview: %w", err)
	}
	slog.Info("saved preview", "path", path)
	return nil
}

// ---------- reformat ----------

// ReformatCmd converts an SVG file, optionally rebuilding it on every change.
type ReformatCmd struct {
	Input    string        `arg:"" type:"existingfile" help:"Source SVG with a barcode group of rectangles"`
	Output   string        `short:"o" default:"lines.svg" type:"path" help:"Output SVG file"`
	Group    string        `help:"Id of the group holding the bars (default barcode_group)"`
	Watch    bool          `short:"w" help:"Rebuild when the input changes"`
	Debounce time.Duration `default:"300ms" help:"Delay before a rebuild"`
	Preview  string        `type:"path" help:"Also write a PNG preview here"`
}

func (c *ReformatCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	if c.Group != "" {
		cfg.GroupID = c.Group
	}

	// first build
	if err := c.build(cfg); err != nil {
		return err
	}
	if !c.Watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.watch(ctx, cfg)
}

func (c *ReformatCmd) build(cfg lasercode.Config) error {
	canvas, err := lasercode.ReformatFile(c.Input, c.Output, cfg)
	if err != nil {
		return err
	}
	return writePreview(canvas, c.Preview)
}

// watch – rebuilds after each burst of writes to the input file.
// Editors often replace files by rename, so the directory is watched too.
func (c *ReformatCmd) watch(ctx context.Context, cfg lasercode.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	inAbs, _ := filepath.Abs(c.Input)
	for _, p := range []string{inAbs, filepath.Dir(inAbs)} {
		if err := watcher.Add(p); err != nil {
			slog.Warn("cannot watch", "path", p, "err", err)
		}
	}

	deb := newDebouncer(c.Debounce)
	defer deb.stop()

	slog.Info("watching for changes", "path", c.Input)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !touchesInput(ev, inAbs) {
				continue
			}
			slog.Debug("input changed", "op", ev.Op.String())
			deb.trigger()
		case <-deb.C:
			if err := c.build(cfg); err != nil {
				slog.Error("rebuild failed", "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		case <-ctx.Done():
			slog.Info("stopped watching")
			return nil
		}
	}
}

// touchesInput – events that may have changed the content of the input file.
func touchesInput(ev fsnotify.Event, abs string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return sameFile(ev.Name, abs)
}

func sameFile(name, abs string) bool {
	n, err := filepath.Abs(name)
	return err == nil && n == abs
}

// debouncer – C receives once per burst of trigger calls, delay after the last one.
type debouncer struct {
	C     chan struct{}
	delay time.Duration

	mu sync.Mutex
	t  *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{C: make(chan struct{}, 1), delay: delay}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t != nil {
		d.t.Stop()
	}
	d.t = time.AfterFunc(d.delay, func() {
		select {
		case d.C <- struct{}{}:
		default:
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t != nil {
		d.t.Stop()
	}
}

// ---------- serve ----------

// ServeCmd runs the HTTP daemon until interrupted.
type ServeCmd struct {
	Port int    `short:"p" default:"8080" help:"Listen port"`
	Root string `default:"." type:"existingdir" help:"Directory source paths of /reformat are resolved in"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("root: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Port),
		Handler:           newServer(cfg, root).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("daemon listening", "port", c.Port, "root", root)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ---------- version ----------

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(*Globals) error {
	fmt.Println("lasercode " + version + " (" + strings.Join(lasercode.Symbologies(), ", ") + ")")
	return nil
}
