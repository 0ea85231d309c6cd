package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/docnav"
	"github.com/fwojciec/docnav/fs"
	"github.com/fwojciec/docnav/minio"
	"github.com/fwojciec/docnav/search"
	"github.com/fwojciec/docnav/sqlite"
)

// Run executes the import command.
func (c *ImportCmd) Run(deps *Dependencies) error {
	if deps.DB == nil {
		fmt.Fprintln(deps.Stderr, "Hint: Set --db or DOCNAV_DB to the index database path")
		return docnav.Errorf(docnav.EINVALID, "no database configured")
	}

	keys, err := deps.Sources.Keys(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
		return err
	}

	store := search.NewShardStore(deps.Sources.Shards)
	if err := store.Prefetch(deps.Ctx, keys...); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
		return err
	}

	svc := sqlite.NewShardService(deps.DB)
	var imported, unchanged int
	for _, key := range keys {
		shard, ok := store.Cached(key)
		if !ok || len(shard.Entries) == 0 {
			continue
		}
		changed, err := svc.ImportShard(deps.Ctx, shard)
		if err != nil {
			return fmt.Errorf("import shard %q: %w", key, err)
		}
		if changed {
			imported++
		} else {
			unchanged++
		}
	}

	fmt.Fprintf(deps.Stdout, "Imported %d shards (%d unchanged).\n", imported, unchanged)

	if c.Prune {
		pruned, err := prune(deps, svc, store)
		if err != nil {
			return err
		}
		fmt.Fprintf(deps.Stdout, "Pruned %d shards.\n", pruned)
	}
	return nil
}

// prune deletes imported shards that are now missing or empty in store.
func prune(deps *Dependencies, svc *sqlite.ShardService, store *search.ShardStore) (int, error) {
	infos, err := svc.ListShards(deps.Ctx, sqlite.ShardFilter{})
	if err != nil {
		return 0, fmt.Errorf("list shards: %w", err)
	}
	var n int
	for _, info := range infos {
		if shard, ok := store.Cached(info.Key); ok && len(shard.Entries) > 0 {
			continue
		}
		if err := svc.DeleteShard(deps.Ctx, info.Key); err != nil {
			return n, fmt.Errorf("delete shard %q: %w", info.Key, err)
		}
		n++
	}
	return n, nil
}

// Run executes the shards command.
func (c *ShardsCmd) Run(deps *Dependencies) error {
	if deps.DB == nil {
		fmt.Fprintln(deps.Stderr, "Hint: Set --db or DOCNAV_DB to the index database path")
		return docnav.Errorf(docnav.EINVALID, "no database configured")
	}

	infos, err := sqlite.NewShardService(deps.DB).ListShards(deps.Ctx, sqlite.ShardFilter{
		Limit:  c.Limit,
		Offset: c.Offset,
	})
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(deps.Stdout, "No shards imported.")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(deps.Stdout, "%s\t%d\t%s\n", info.Key, info.EntryCount, info.ImportedAt.Format(time.RFC3339))
	}
	return nil
}

// Run executes the mirror command.
func (c *MirrorCmd) Run(deps *Dependencies) error {
	rec := newRecordingFetcher(deps.Sources.Fetcher)
	src := NewSources(rec, deps.Config, nil)

	if _, err := src.Nav.LoadNavDocument(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
		return err
	}
	keys, err := src.Keys(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
		return err
	}
	if err := search.NewShardStore(src.Shards).Prefetch(deps.Ctx, keys...); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
		return err
	}

	files := rec.Files()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	if bucket, prefix, ok := parseBucketURL(c.Dest); ok {
		return c.upload(deps, bucket, prefix, names, files)
	}

	dest, err := filepath.Abs(c.Dest)
	if err != nil {
		return err
	}
	mirror := fs.NewMirror(filepath.Dir(dest), filepath.Base(dest))
	for _, name := range names {
		if err := mirror.Save(deps.Ctx, name, files[name]); err != nil {
			_ = mirror.Abort()
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	if err := mirror.Commit(); err != nil {
		_ = mirror.Abort()
		return err
	}

	fmt.Fprintf(deps.Stdout, "Mirrored %d files to %s.\n", len(names), mirror.Dir())
	return nil
}

// upload copies files into a bucket on the configured object store.
func (c *MirrorCmd) upload(deps *Dependencies, bucket, prefix string, names []string, files map[string][]byte) error {
	cfg := deps.Config
	if cfg.MinioEndpoint == "" {
		fmt.Fprintln(deps.Stderr, "Hint: Set minio_endpoint or DOCNAV_MINIO_ENDPOINT to upload to a bucket")
		return docnav.Errorf(docnav.EINVALID, "no object store endpoint configured")
	}
	client, err := minio.NewClient(minio.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Region:    cfg.MinioRegion,
		Secure:    cfg.MinioSecure,
	})
	if err != nil {
		return err
	}

	dst := minio.NewFetcher(client, bucket, prefix)
	for _, name := range names {
		if err := dst.Save(deps.Ctx, name, files[name]); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
			return err
		}
	}

	fmt.Fprintf(deps.Stdout, "Mirrored %d files to %s.\n", len(names), c.Dest)
	return nil
}

// parseBucketURL splits "s3://bucket/prefix" into its parts.
func parseBucketURL(dest string) (bucket, prefix string, ok bool) {
	rest, ok := strings.CutPrefix(dest, "s3://")
	if !ok {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", false
	}
	return bucket, strings.Trim(prefix, "/"), true
}
