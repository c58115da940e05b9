// Package cli implements the graphbuilder command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphbuilder/internal/config"
	"github.com/matzehuels/graphbuilder/pkg/buildinfo"
	"github.com/matzehuels/graphbuilder/pkg/cache"
	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
	"github.com/matzehuels/graphbuilder/pkg/graph"
	gbio "github.com/matzehuels/graphbuilder/pkg/io"
	"github.com/matzehuels/graphbuilder/pkg/observability"
	"github.com/matzehuels/graphbuilder/pkg/session"
	"github.com/matzehuels/graphbuilder/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "graphbuilder"

	// connectTimeout bounds dialing a remote store.
	connectTimeout = 10 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     config.Config

	// Flag overrides applied on top of the config file.
	storeBackend string
	storeDir     string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "graphbuilder",
		Short:        "Graphbuilder draws and edits undirected graphs",
		Long:         `Graphbuilder is a tool for drawing undirected graphs of positioned nodes. Graphs are stored as JSON documents and can be edited from the terminal, over HTTP, or one command at a time, then rendered to SVG or PNG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/graphbuilder/config.toml)")
	flags.StringVar(&c.storeBackend, "store", "", "document store: file, redis or mongo")
	flags.StringVar(&c.storeDir, "store-dir", "", "directory for the file store")

	// Graph documents
	root.AddCommand(c.newCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.rmCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.validateCommand())

	// Single edits
	root.AddCommand(c.addCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.disconnectCommand())
	root.AddCommand(c.deleteCommand())

	// Interactive and output
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())

	// Housekeeping
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file, applies flag overrides and installs the
// logging observability hooks.
func (c *CLI) loadConfig() error {
	cfg, unknown, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	for _, key := range unknown {
		c.Logger.Warn("unknown config key", "key", key)
	}

	if c.storeBackend != "" {
		cfg.Store.Backend = c.storeBackend
	}
	if c.storeDir != "" {
		cfg.Store.Dir = c.storeDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.config = cfg

	hooks := &logHooks{logger: c.Logger}
	observability.SetRenderHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	return nil
}

// =============================================================================
// Store & Cache Factories
// =============================================================================

// openStore opens the configured document store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg := c.config.Store
	switch cfg.Backend {
	case config.BackendRedis:
		opts := []store.RedisOption{store.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, store.WithPrefix(cfg.Redis.Prefix))
		}
		c.Logger.Debug("opening redis store", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		rs := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil

	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		c.Logger.Debug("opening mongo store", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		return store.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)

	default:
		dir := cfg.Dir
		if dir == "" {
			d, err := dataDir()
			if err != nil {
				return nil, fmt.Errorf("get data dir: %w", err)
			}
			dir = d
		}
		c.Logger.Debug("opening file store", "dir", dir)
		return store.NewFileStore(dir)
	}
}

// newCache returns the render cache. Redis-backed stores share their server
// with the cache; everything else caches on disk.
func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache || c.config.Render.NoCache {
		return cache.NewNullCache(), nil
	}
	if c.config.Store.Backend == config.BackendRedis {
		r := c.config.Store.Redis
		client := backend.NewClient(&backend.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
		return cache.NewRedisCache(client, cache.DefaultRedisPrefix), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Session Helpers
// =============================================================================

// decodeOptions returns the codec options, with strict forced on by the flag.
func (c *CLI) decodeOptions(strict bool) gbio.DecodeOptions {
	return gbio.DecodeOptions{Strict: strict || c.config.Editor.Strict}
}

// newSession creates a session using the configured ID generator.
func (c *CLI) newSession(opts ...session.Option) *session.Session {
	base := []session.Option{
		session.WithLogger(c.Logger),
		session.WithIDGenerator(session.NewIDGenerator(c.config.Editor.IDs)),
	}
	return session.New(append(base, opts...)...)
}

// openSession loads the named graph into a new session. Decoding problems
// are logged through the session's logger and returned in the report.
func (c *CLI) openSession(ctx context.Context, st store.Store, name string, opts ...session.Option) (*session.Session, *gbio.Report, error) {
	data, err := st.Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	sess := c.newSession(opts...)
	report, err := sess.LoadDocument(data, c.decodeOptions(false))
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", name, err)
	}
	return sess, report, nil
}

// saveSession writes the session's graph back to the store.
func saveSession(ctx context.Context, st store.Store, name string, sess *session.Session) error {
	doc, err := sess.Document()
	if err != nil {
		return err
	}
	return st.Put(ctx, name, doc)
}

// editGraph opens the named graph, applies fn and saves the result.
func (c *CLI) editGraph(ctx context.Context, name string, fn func(*session.Session) error) (*graph.Graph, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	sess, _, err := c.openSession(ctx, st, name)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := saveSession(ctx, st, name, sess); err != nil {
		return nil, err
	}
	return sess.Graph(), nil
}

// =============================================================================
// Argument Parsing
// =============================================================================

// parsePoint parses two coordinate arguments.
func parsePoint(xs, ys string) (graph.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return graph.Point{}, apperr.New(apperr.ErrCodeInvalidInput, "invalid x coordinate %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return graph.Point{}, apperr.New(apperr.ErrCodeInvalidInput, "invalid y coordinate %q", ys)
	}
	p := graph.Point{X: x, Y: y}
	if !p.Finite() {
		return graph.Point{}, apperr.New(apperr.ErrCodeInvalidInput, "coordinates must be finite, got %s %s", xs, ys)
	}
	return p, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/graphbuilder/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the file store directory (~/.local/share/graphbuilder/graphs/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "graphs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "graphs"), nil
}
