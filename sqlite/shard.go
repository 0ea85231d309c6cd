package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docnav"
)

// Compile-time interface verification.
var _ docnav.ShardSource = (*ShardService)(nil)

// ShardInfo describes an imported shard.
type ShardInfo struct {
	Key         string
	ContentHash string
	EntryCount  int
	ImportedAt  time.Time
}

// ShardFilter limits ListShards results.
type ShardFilter struct {
	Limit  int
	Offset int
}

// ShardService implements docnav.ShardSource using SQLite.
type ShardService struct {
	db *DB
}

// NewShardService creates a new ShardService.
func NewShardService(db *DB) *ShardService {
	return &ShardService{db: db}
}

// hashEntries computes the xxHash of a shard's entries and returns a hex
// string.
func hashEntries(entries []docnav.SearchEntry) string {
	h := xxhash.New()
	for _, e := range entries {
		for _, s := range []string{e.Key, e.DisplayName, e.Target, e.Scope} {
			_, _ = h.WriteString(s)
			_, _ = h.Write([]byte{0})
		}
	}
	b := binary.BigEndian.AppendUint64(nil, h.Sum64())
	return hex.EncodeToString(b)
}

// FetchShard implements docnav.ShardSource.
// Returns ENOTFOUND if the shard was never imported.
func (s *ShardService) FetchShard(ctx context.Context, key string) (*docnav.IndexShard, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT entry_count FROM shards WHERE key = ?", key).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docnav.Errorf(docnav.ENOTFOUND, "no search shard for %q", key)
	}
	if err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "read shard %q", key)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, display_name, target, scope
		FROM search_entries
		WHERE shard_key = ?
		ORDER BY position ASC
	`, key)
	if err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "read shard %q", key)
	}
	defer rows.Close()

	shard := &docnav.IndexShard{Key: key, Entries: make([]docnav.SearchEntry, 0, n)}
	for rows.Next() {
		var e docnav.SearchEntry
		if err := rows.Scan(&e.Key, &e.DisplayName, &e.Target, &e.Scope); err != nil {
			return nil, docnav.WrapError(docnav.EFETCH, err, "read shard %q", key)
		}
		shard.Entries = append(shard.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "read shard %q", key)
	}
	return shard, nil
}

// ImportShard stores shard, replacing any previous version. Entry keys are
// normalized and must all address the shard. Returns false if an identical
// shard was already stored.
func (s *ShardService) ImportShard(ctx context.Context, shard *docnav.IndexShard) (bool, error) {
	if shard == nil || shard.Key == "" {
		return false, docnav.Errorf(docnav.EINVALID, "shard key required")
	}

	entries := make([]docnav.SearchEntry, len(shard.Entries))
	for i, e := range shard.Entries {
		e.Key = docnav.NormalizeQuery(e.Key)
		if docnav.ShardKeyFor(e.Key) != shard.Key {
			return false, docnav.Errorf(docnav.EINVALID, "entry %q does not belong to shard %q", e.Key, shard.Key)
		}
		entries[i] = e
	}
	hash := hashEntries(entries)

	var existing string
	err := s.db.QueryRowContext(ctx, "SELECT content_hash FROM shards WHERE key = ?", shard.Key).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	if existing == hash {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM shards WHERE key = ?", shard.Key); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO shards (key, content_hash, entry_count, imported_at)
		VALUES (?, ?, ?, ?)
	`, shard.Key, hash, len(entries), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return false, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO search_entries (shard_key, position, key, display_name, target, scope)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, shard.Key, i, e.Key, e.DisplayName, e.Target, e.Scope); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

// ListShards returns imported shards ordered by key.
func (s *ShardService) ListShards(ctx context.Context, filter ShardFilter) ([]*ShardInfo, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT key, content_hash, entry_count, imported_at FROM shards ORDER BY key ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shards []*ShardInfo
	for rows.Next() {
		var info ShardInfo
		var importedAt string
		if err := rows.Scan(&info.Key, &info.ContentHash, &info.EntryCount, &importedAt); err != nil {
			return nil, err
		}
		if info.ImportedAt, err = parseRFC3339(importedAt, "imported_at"); err != nil {
			return nil, err
		}
		shards = append(shards, &info)
	}
	return shards, rows.Err()
}

// DeleteShard removes a shard and its entries.
func (s *ShardService) DeleteShard(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM shards WHERE key = ?", key)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return docnav.Errorf(docnav.ENOTFOUND, "shard %q not found", key)
	}

	return nil
}
