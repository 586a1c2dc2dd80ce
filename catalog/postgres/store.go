// Package postgres provides a PostgreSQL backed peer catalog.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/types"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// peerColumns lists columns returned by peer SELECT queries.
var peerColumns = []string{"name", "type", "options"}

// ErrPeerNotFound is returned by GetPeer when no peer has the given name.
var ErrPeerNotFound = errors.New("peer not found")

// Store reads peers from the peers table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL peer catalog.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetPeers returns every registered peer keyed by name.
func (s *Store) GetPeers(ctx context.Context) (map[string]*types.Peer, error) {
	query, args, err := psq.Select(peerColumns...).From("peers").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building peers query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying peers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	peers := make(map[string]*types.Peer)
	for rows.Next() {
		peer, err := scanPeer(rows)
		if err != nil {
			return nil, err
		}
		peers[peer.Name] = peer
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating peers: %w", err)
	}
	peerwire.LogDebugf("loaded %d peers from catalog", len(peers))
	return peers, nil
}

// GetPeer returns one peer, or ErrPeerNotFound.
func (s *Store) GetPeer(ctx context.Context, name string) (*types.Peer, error) {
	query, args, err := psq.Select(peerColumns...).From("peers").Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building peer query: %w", err)
	}

	peer, err := scanPeer(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPeerNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return peer, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPeer(row scanner) (*types.Peer, error) {
	var (
		peer    types.Peer
		options []byte
	)
	if err := row.Scan(&peer.Name, &peer.Type, &options); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning peer: %w", err)
	}
	if !peer.Type.Valid() {
		return nil, fmt.Errorf("peer %s has unknown type %q", peer.Name, peer.Type)
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &peer.Options); err != nil {
			return nil, fmt.Errorf("decoding options of peer %s: %w", peer.Name, err)
		}
	}
	if peer.Options == nil {
		peer.Options = map[string]string{}
	}
	return &peer, nil
}

var _ peerwire.Catalog = (*Store)(nil)
