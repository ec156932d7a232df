package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voyagen/m3uforge/internal/models"
)

// Postgres implements Store using PostgreSQL. Playlists are kept as JSONB.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// CreateDocument inserts a document and returns its id.
func (p *Postgres) CreateDocument(ctx context.Context, doc *models.Document) (int64, error) {
	data, err := marshalPlaylist(doc.Playlist)
	if err != nil {
		return 0, fmt.Errorf("CreateDocument: %w", err)
	}
	var id int64
	err = p.pool.QueryRow(ctx,
		`INSERT INTO playlists (name, source_url, playlist, entry_count)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		doc.Name, doc.SourceURL, data, entryCount(doc.Playlist),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("CreateDocument: %w", err)
	}
	return id, nil
}

// GetDocument returns a document with its playlist.
func (p *Postgres) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	var (
		doc       models.Document
		raw       []byte
		createdAt time.Time
		updatedAt time.Time
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, source_url, playlist, entry_count, created_at, updated_at
		 FROM playlists WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Name, &doc.SourceURL, &raw, &doc.EntryCount, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetDocument: %w", err)
	}
	var pl models.Playlist
	if err := json.Unmarshal(raw, &pl); err != nil {
		return nil, fmt.Errorf("GetDocument: decode playlist %d: %w", id, err)
	}
	doc.Playlist = &pl
	doc.CreatedAt = &createdAt
	doc.UpdatedAt = &updatedAt
	return &doc, nil
}

// ListDocuments returns all documents without playlists.
func (p *Postgres) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, source_url, entry_count, created_at, updated_at
		 FROM playlists ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListDocuments: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var (
			doc       models.Document
			createdAt time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.SourceURL, &doc.EntryCount, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("ListDocuments scan: %w", err)
		}
		doc.CreatedAt = &createdAt
		doc.UpdatedAt = &updatedAt
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDocuments: %w", err)
	}
	return docs, nil
}

// SaveDocument overwrites an existing document and bumps updated_at.
func (p *Postgres) SaveDocument(ctx context.Context, doc *models.Document) error {
	data, err := marshalPlaylist(doc.Playlist)
	if err != nil {
		return fmt.Errorf("SaveDocument: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE playlists
		 SET name = $2, source_url = $3, playlist = $4, entry_count = $5, updated_at = NOW()
		 WHERE id = $1`,
		doc.ID, doc.Name, doc.SourceURL, data, entryCount(doc.Playlist),
	)
	if err != nil {
		return fmt.Errorf("SaveDocument: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDocument deletes a document.
func (p *Postgres) DeleteDocument(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteDocument: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalPlaylist(p *models.Playlist) ([]byte, error) {
	if p == nil {
		p = models.NewPlaylist()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode playlist: %w", err)
	}
	return data, nil
}

func entryCount(p *models.Playlist) int {
	if p == nil {
		return 0
	}
	return len(p.Entries)
}
