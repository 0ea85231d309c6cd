package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/docnav"
	docslog "github.com/fwojciec/docnav/slog"
	"github.com/fwojciec/docnav/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Config  *Config
	Sources *Sources
	DB      *sqlite.DB
}

// searchSource returns the imported index when a database is open and the
// documentation set's own shards otherwise.
func (d *Dependencies) searchSource() docnav.ShardSource {
	if d.DB == nil {
		return d.Sources.Shards
	}
	var src docnav.ShardSource = sqlite.NewShardService(d.DB)
	if d.Logger != nil {
		src = docslog.NewLoggingShardSource(src, d.Logger)
	}
	return src
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" default:"docnav.yaml" type:"path" help:"Config file (optional)"`
	Source  string `help:"Where the documentation lives: dir, http or minio"`
	Format  string `help:"Data format: doxygen or qhp"`
	Dir     string `short:"d" help:"Documentation directory"`
	URL     string `help:"Documentation base URL"`
	DB      string `help:"SQLite search index"`
	Verbose bool   `short:"v" help:"Log data access to stderr"`

	Search  SearchCmd  `cmd:"" help:"Search the documentation index"`
	Resolve ResolveCmd `cmd:"" help:"Show the navigation path for a content location"`
	Tree    TreeCmd    `cmd:"" help:"Print the navigation tree"`
	Open    OpenCmd    `cmd:"" help:"Select a navigation entry by label path"`
	Import  ImportCmd  `cmd:"" help:"Import the search index into the SQLite database"`
	Shards  ShardsCmd  `cmd:"" help:"List shards imported into the SQLite database"`
	Mirror  MirrorCmd  `cmd:"" help:"Copy the documentation data files into a directory"`
}

// apply overlays flags that were set on cfg.
func (c *CLI) apply(cfg *Config) {
	if c.Source != "" {
		cfg.Source = c.Source
	}
	if c.Format != "" {
		cfg.Format = c.Format
	}
	if c.Dir != "" {
		cfg.Dir = c.Dir
	}
	if c.URL != "" {
		cfg.URL = c.URL
	}
	if c.DB != "" {
		cfg.DB = c.DB
	}
	if c.Verbose {
		cfg.Verbose = true
	}
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query       []string `arg:"" help:"Search query"`
	Limit       int      `short:"n" default:"20" help:"Maximum number of results (0 for all)"`
	Incremental bool     `short:"i" help:"Issue the query one character at a time, as a search box does"`
}

// ResolveCmd is the "resolve" subcommand.
type ResolveCmd struct {
	Location string `arg:"" help:"Content location, e.g. installation.html#autotoc_md42"`
}

// TreeCmd is the "tree" subcommand.
type TreeCmd struct {
	Depth int `default:"0" help:"Maximum depth to print (0 for all)"`
}

// OpenCmd is the "open" subcommand.
type OpenCmd struct {
	Path []string `arg:"" help:"Labels from the root's children down, e.g. Guide Installation"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	Prune bool `help:"Delete imported shards the documentation set no longer has"`
}

// ShardsCmd is the "shards" subcommand.
type ShardsCmd struct {
	Limit  int `short:"n" default:"0" help:"Maximum number of shards (0 for all)"`
	Offset int `help:"Number of shards to skip"`
}

// MirrorCmd is the "mirror" subcommand.
type MirrorCmd struct {
	Dest string `arg:"" help:"Destination directory or s3://bucket/prefix"`
}
