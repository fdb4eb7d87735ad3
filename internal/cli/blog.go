package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/yildizm/BlogView/internal/app"
	"github.com/yildizm/BlogView/internal/config"
	"github.com/yildizm/BlogView/internal/logger"
	"github.com/yildizm/BlogView/internal/monitor"
	"github.com/yildizm/BlogView/internal/notify"
	"github.com/yildizm/BlogView/internal/remote"
	"github.com/yildizm/BlogView/internal/templates"
)

type verboseFlag struct {
	cfg *config.Config
}

func (v verboseFlag) IsVerbose() bool {
	return isVerbose() || v.cfg.Output.Verbose
}

// blog bundles what a command needs to drive the runtime
type blog struct {
	cfg     *config.Config
	log     *logger.Logger
	session *monitor.Session
	cache   *templates.Cache
	runtime *app.Runtime
	closer  io.Closer
}

// Close releases the log file, if any
func (b *blog) Close() {
	if b.closer != nil {
		_ = b.closer.Close()
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if isVerbose() {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// newLogger writes to the configured log file. Without one, headless
// commands log to stderr and the TUI discards.
func newLogger(cfg *config.Config, stderr bool) (*logger.Logger, io.Closer, error) {
	checker := verboseFlag{cfg: cfg}
	if cfg.Output.LogFile != "" {
		return logger.OpenFile(cfg.Output.LogFile, "blogview", checker)
	}
	if stderr {
		return logger.NewWithWriter("blogview", checker, os.Stderr), nil, nil
	}
	return logger.Discard(), nil, nil
}

func templateSource(cfg *config.Config) (templates.Source, error) {
	if cfg.Templates.Dir != "" {
		return templates.NewDirSource(cfg.Templates.Dir), nil
	}
	return templates.NewHTTPSource(cfg.ViewsURL(), cfg.API.Timeout)
}

func newCache(cfg *config.Config, log *logger.Logger, stats templates.Stats) (*templates.Cache, error) {
	source, err := templateSource(cfg)
	if err != nil {
		return nil, err
	}
	opts := []templates.Option{templates.WithLogger(log)}
	if stats != nil {
		opts = append(opts, templates.WithStats(stats))
	}
	return templates.NewCache(source, opts...), nil
}

// openBlog builds the runtime with every collaborator the configuration
// names. Nothing is fetched until the runtime starts.
func openBlog(ctx context.Context, cfg *config.Config, sched app.Scheduler, logToStderr bool) (*blog, error) {
	log, closer, err := newLogger(cfg, logToStderr)
	if err != nil {
		return nil, err
	}
	b := &blog{cfg: cfg, log: log, closer: closer, session: monitor.NewSession()}

	b.cache, err = newCache(cfg, log, b.session)
	if err != nil {
		b.Close()
		return nil, err
	}

	client, err := remote.New(remote.Config{
		SiteURL:  cfg.Site.URL,
		PostsURL: cfg.PostsURL(),
		Timeout:  cfg.API.Timeout,
	}, remote.WithLogger(log))
	if err != nil {
		b.Close()
		return nil, err
	}

	queue := notify.NewQueue(notify.Options{
		Delay: cfg.Notifications.Delay,
		Fade:  cfg.Notifications.Fade,
	})

	b.runtime = app.New(ctx, app.Options{
		Root:           cfg.Router.Root,
		Silent:         cfg.Router.Silent,
		SiteURL:        cfg.Site.URL,
		PostsURL:       cfg.PostsURL(),
		PerPage:        cfg.Blog.PerPage,
		InfiniteScroll: cfg.Blog.InfiniteScroll,
		Margin:         cfg.Blog.PrefetchMargin,
	}, client, b.cache, queue, sched, app.WithLogger(log), app.WithSession(b.session))

	return b, nil
}
