// Package app wires configuration, logging, the history tree and the Lua
// scripting runtime together.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/undotree/internal/config"
	"github.com/dshills/undotree/internal/history"
	"github.com/dshills/undotree/internal/plugin/api"
)

// Application owns one history tree and the Lua state that drives it.
type Application struct {
	config *config.Config
	logger *slog.Logger

	root  *history.Coordinator
	nodes map[string]history.Node
	sub   *history.Subscription

	lua *lua.LState

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// LogOutput receives log output. Defaults to os.Stderr.
	LogOutput io.Writer

	// Loader reads the configuration. Defaults to the OS file system.
	Loader *config.Loader
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}

	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}

	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	loader := app.opts.Loader
	if loader == nil {
		loader = config.NewLoader()
	}
	cfg, err := loader.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if app.opts.LogLevel != "" {
		cfg.Log.Level = app.opts.LogLevel
	}
	app.config = cfg

	// 2. Logger
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return &InitError{Component: "logger", Err: err}
	}
	out := app.opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	app.logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	// 3. History tree
	root, nodes, err := buildTree(cfg, app.logger)
	if err != nil {
		return &InitError{Component: "history", Err: err}
	}
	app.root = root
	app.nodes = nodes
	app.sub = root.Subscribe(app.logEvent)

	// 4. Lua runtime
	L := lua.NewState()
	app.lua = L
	reg, err := api.DefaultRegistry(&api.Context{Tree: root, Logger: app.logger})
	if err != nil {
		return &InitError{Component: "lua", Err: err}
	}
	if err := reg.InjectAll(L); err != nil {
		return &InitError{Component: "lua", Err: err}
	}

	app.logger.Debug("application initialized",
		slog.String("root", root.ID()),
		slog.Int("nodes", len(nodes)),
		slog.String("policy", root.Policy().String()),
	)
	return nil
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Tree returns the root coordinator.
func (app *Application) Tree() *history.Coordinator {
	return app.root
}

// Node returns the configured node with the given id.
func (app *Application) Node(id string) (history.Node, bool) {
	n, ok := app.nodes[id]
	return n, ok
}

// RunScript executes a Lua script file against the tree.
func (app *Application) RunScript(path string) error {
	if err := app.lua.DoFile(path); err != nil {
		return &ScriptError{Source: path, Err: err}
	}
	return nil
}

// RunString executes Lua source against the tree.
func (app *Application) RunString(src string) error {
	if err := app.lua.DoString(src); err != nil {
		return &ScriptError{Source: "<string>", Err: err}
	}
	return nil
}

// Shutdown releases the Lua state and detaches the event logger.
// Safe to call more than once.
func (app *Application) Shutdown() {
	if app.sub != nil {
		app.sub.Unsubscribe()
		app.sub = nil
	}
	if app.lua != nil {
		app.lua.Close()
		app.lua = nil
	}
}

// logEvent debug-logs every event reaching the root.
func (app *Application) logEvent(ev history.Event) {
	attrs := []slog.Attr{
		slog.String("type", ev.Type.String()),
		slog.String("source", ev.Source),
	}
	switch ev.Type {
	case history.EventRecordCommitted, history.EventUndoPerformed, history.EventRedoPerformed:
		attrs = append(attrs,
			slog.String("entry", ev.Entry.String()),
			slog.String("description", ev.Description),
		)
		if ev.Coalesced {
			attrs = append(attrs, slog.Bool("coalesced", true))
		}
	case history.EventQueueProcessed:
		attrs = append(attrs, slog.Int("count", ev.Count))
	case history.EventFocusChanged:
		attrs = append(attrs, slog.String("focus", ev.Focus))
	}
	app.logger.LogAttrs(context.Background(), slog.LevelDebug, "history event", attrs...)
}

// buildTree creates the root coordinator and every configured node.
// cfg must have been validated.
func buildTree(cfg *config.Config, logger *slog.Logger) (*history.Coordinator, map[string]history.Node, error) {
	policy, err := history.ParsePolicy(cfg.History.Policy)
	if err != nil {
		return nil, nil, err
	}
	root := history.NewCoordinator(cfg.History.Root,
		history.WithLogger(logger),
		history.WithPolicy(policy),
	)

	nodes := map[string]history.Node{root.ID(): root}
	groups := map[string]*history.Coordinator{root.ID(): root}

	for _, nc := range cfg.Nodes {
		parent, ok := groups[nc.ParentID(root.ID())]
		if !ok {
			return nil, nil, fmt.Errorf("node %q: %w: %q", nc.ID, config.ErrUnknownParent, nc.Parent)
		}

		var n history.Node
		switch nc.Kind {
		case config.KindStack:
			n = history.NewStack(nc.ID,
				history.WithMaxEntries(orDefault(nc.MaxEntries, cfg.History.MaxEntries)),
				history.WithMaxPending(orDefault(nc.MaxPending, cfg.History.MaxPending)),
			)
		case config.KindGroup:
			p, err := history.ParsePolicy(nc.Policy)
			if err != nil {
				return nil, nil, fmt.Errorf("node %q: %w", nc.ID, err)
			}
			c := history.NewCoordinator(nc.ID, history.WithPolicy(p))
			groups[nc.ID] = c
			n = c
		default:
			return nil, nil, fmt.Errorf("node %q: %w: kind %q", nc.ID, config.ErrInvalidNode, nc.Kind)
		}

		if err := parent.AddChild(n); err != nil {
			return nil, nil, err
		}
		nodes[nc.ID] = n
	}

	return root, nodes, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
