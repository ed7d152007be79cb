package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/undotree/internal/history"
)

// Node kinds accepted in NodeConfig.Kind.
const (
	KindStack = history.KindStack
	KindGroup = history.KindGroup
)

// DefaultRoot is the id of the root coordinator when none is configured.
const DefaultRoot = "root"

// Config is the complete configuration of a history tree.
type Config struct {
	History HistoryConfig `toml:"history" yaml:"history"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Nodes   []NodeConfig  `toml:"nodes" yaml:"nodes"`
}

// HistoryConfig holds the root coordinator settings and the defaults
// inherited by every node.
type HistoryConfig struct {
	// Root is the id of the root coordinator.
	Root string `toml:"root" yaml:"root"`

	// Policy is the root coordinator's resolution policy.
	Policy string `toml:"policy" yaml:"policy"`

	// MaxEntries caps every stack's undo history.
	MaxEntries int `toml:"max_entries" yaml:"max_entries"`

	// MaxPending flushes a stack's pending queue once it holds this many
	// candidates. Zero disables the limit.
	MaxPending int `toml:"max_pending" yaml:"max_pending"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// NodeConfig describes one stack or nested coordinator.
type NodeConfig struct {
	ID     string `toml:"id" yaml:"id"`
	Kind   string `toml:"kind" yaml:"kind"`
	Parent string `toml:"parent,omitempty" yaml:"parent,omitempty"`

	// Overrides; zero values inherit from HistoryConfig.
	Policy     string `toml:"policy,omitempty" yaml:"policy,omitempty"`
	MaxEntries int    `toml:"max_entries,omitempty" yaml:"max_entries,omitempty"`
	MaxPending int    `toml:"max_pending,omitempty" yaml:"max_pending,omitempty"`
}

// Default returns the default configuration: an empty root coordinator
// following the operation log.
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			Root:       DefaultRoot,
			Policy:     history.PolicyOperationLog.String(),
			MaxEntries: history.DefaultMaxEntries,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if c.History.Root == "" {
		c.History.Root = DefaultRoot
	}
	if _, err := history.ParsePolicy(c.History.Policy); err != nil {
		return fmt.Errorf("history: %w: %q", ErrInvalidPolicy, c.History.Policy)
	}
	if c.History.MaxEntries < 0 || c.History.MaxPending < 0 {
		return fmt.Errorf("history: limits must not be negative")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	groups := map[string]bool{c.History.Root: true}
	seen := map[string]bool{c.History.Root: true}
	for i, n := range c.Nodes {
		if n.ID == "" {
			return fmt.Errorf("nodes[%d]: %w: missing id", i, ErrInvalidNode)
		}
		if seen[n.ID] {
			return fmt.Errorf("nodes[%d]: %w: %q", i, ErrDuplicateNode, n.ID)
		}
		switch n.Kind {
		case KindStack:
			if n.Policy != "" {
				return fmt.Errorf("nodes[%d]: %w: stack %q cannot set a policy", i, ErrInvalidNode, n.ID)
			}
		case KindGroup:
		default:
			return fmt.Errorf("nodes[%d]: %w: kind %q", i, ErrInvalidNode, n.Kind)
		}
		if _, err := history.ParsePolicy(n.Policy); err != nil {
			return fmt.Errorf("nodes[%d]: %w: %q", i, ErrInvalidPolicy, n.Policy)
		}
		if n.MaxEntries < 0 || n.MaxPending < 0 {
			return fmt.Errorf("nodes[%d]: limits must not be negative", i)
		}
		if !groups[n.ParentID(c.History.Root)] {
			return fmt.Errorf("nodes[%d]: %w: %q", i, ErrUnknownParent, n.Parent)
		}
		if n.Kind == KindGroup {
			groups[n.ID] = true
		}
		seen[n.ID] = true
	}
	return nil
}

// ParentID returns the node's parent, defaulting to root.
func (n NodeConfig) ParentID(root string) string {
	if n.Parent == "" {
		return root
	}
	return n.Parent
}

// SlogLevel converts the configured level name to a slog.Level.
// The empty string means info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q (must be debug, info, warn, or error)", ErrInvalidLevel, l.Level)
	}
}
