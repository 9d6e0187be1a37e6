package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

// CatalogueRepository persists products, FAQ chunks and their embedding
// records. It implements both ports.CatalogueStore and ports.VectorStore.
type CatalogueRepository struct {
	db *sql.DB
}

func NewCatalogueRepository(db *sql.DB) *CatalogueRepository {
	return &CatalogueRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CatalogueRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	accords TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION,
	longevity TEXT NOT NULL DEFAULT '',
	season TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	popularity DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS faq_chunks (
	id TEXT PRIMARY KEY,
	heading TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS embeddings (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	source_obj_id TEXT NOT NULL,
	content TEXT NOT NULL,
	vector JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_embeddings_source ON embeddings(source);
CREATE INDEX IF NOT EXISTS idx_embeddings_created_at ON embeddings(created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// UpsertProductBatch writes every product/record pair in one transaction, so
// a failed batch leaves the catalogue untouched.
func (r *CatalogueRepository) UpsertProductBatch(ctx context.Context, items []domain.ProductEmbedding) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "begin product batch tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		p := item.Product
		if _, err := tx.ExecContext(ctx, `
INSERT INTO products (id, name, notes, accords, price, longevity, season, image_url, popularity)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	notes = EXCLUDED.notes,
	accords = EXCLUDED.accords,
	price = EXCLUDED.price,
	longevity = EXCLUDED.longevity,
	season = EXCLUDED.season,
	image_url = EXCLUDED.image_url,
	popularity = EXCLUDED.popularity
`, p.ID, p.Name, p.Notes, p.Accords, p.Price, p.Longevity, p.Season, p.ImageURL, p.Popularity); err != nil {
			return domain.WrapError(domain.ErrTemporary, "upsert product", err)
		}

		if err := upsertEmbedding(ctx, tx, item.Record); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "commit product batch tx", err)
	}
	return nil
}

// UpsertFAQBatch writes every chunk/record pair in one transaction.
func (r *CatalogueRepository) UpsertFAQBatch(ctx context.Context, items []domain.FAQEmbedding) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "begin faq batch tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		c := item.Chunk
		if _, err := tx.ExecContext(ctx, `
INSERT INTO faq_chunks (id, heading, body, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
	heading = EXCLUDED.heading,
	body = EXCLUDED.body,
	created_at = EXCLUDED.created_at
`, c.ID, c.Heading, c.Text, c.CreatedAt); err != nil {
			return domain.WrapError(domain.ErrTemporary, "upsert faq chunk", err)
		}

		if err := upsertEmbedding(ctx, tx, item.Record); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "commit faq batch tx", err)
	}
	return nil
}

func upsertEmbedding(ctx context.Context, tx *sql.Tx, rec domain.EmbeddingRecord) error {
	vectorJSON, err := json.Marshal(rec.Vector)
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "marshal vector", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO embeddings (id, source, source_obj_id, content, vector, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
	source = EXCLUDED.source,
	source_obj_id = EXCLUDED.source_obj_id,
	content = EXCLUDED.content,
	vector = EXCLUDED.vector,
	created_at = EXCLUDED.created_at
`, rec.ID, string(rec.Source), rec.SourceObjID, rec.Text, vectorJSON, rec.CreatedAt); err != nil {
		return domain.WrapError(domain.ErrTemporary, "upsert embedding", err)
	}
	return nil
}

func (r *CatalogueRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, notes, accords, price, longevity, season, image_url, popularity
FROM products
ORDER BY id
`)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "query products", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Notes, &p.Accords, &p.Price, &p.Longevity, &p.Season, &p.ImageURL, &p.Popularity); err != nil {
			return nil, domain.WrapError(domain.ErrTemporary, "scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "iterate products", err)
	}
	return products, nil
}

func (r *CatalogueRepository) ListFAQChunks(ctx context.Context) ([]domain.FAQChunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, heading, body, created_at
FROM faq_chunks
ORDER BY created_at, id
`)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "query faq chunks", err)
	}
	defer rows.Close()

	var chunks []domain.FAQChunk
	for rows.Next() {
		var c domain.FAQChunk
		if err := rows.Scan(&c.ID, &c.Heading, &c.Text, &c.CreatedAt); err != nil {
			return nil, domain.WrapError(domain.ErrTemporary, "scan faq chunk", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "iterate faq chunks", err)
	}
	return chunks, nil
}

// ScanEmbeddings returns every record in insertion order so score ties break
// the same way on every scan.
func (r *CatalogueRepository) ScanEmbeddings(ctx context.Context) ([]domain.EmbeddingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, source, source_obj_id, content, vector, created_at
FROM embeddings
ORDER BY created_at, id
`)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "query embeddings", err)
	}
	defer rows.Close()

	var records []domain.EmbeddingRecord
	for rows.Next() {
		var rec domain.EmbeddingRecord
		var source string
		var vectorRaw []byte
		if err := rows.Scan(&rec.ID, &source, &rec.SourceObjID, &rec.Text, &vectorRaw, &rec.CreatedAt); err != nil {
			return nil, domain.WrapError(domain.ErrTemporary, "scan embedding", err)
		}
		if err := json.Unmarshal(vectorRaw, &rec.Vector); err != nil {
			return nil, domain.WrapError(domain.ErrTemporary, "unmarshal vector", err)
		}
		rec.Source = domain.Source(source)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "iterate embeddings", err)
	}
	return records, nil
}
