package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

const schema = `CREATE TABLE documents (
	key      INTEGER PRIMARY KEY,
	id       TEXT NOT NULL,
	content  TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	vector   BLOB NOT NULL
)`

type storedDoc struct {
	key    uint64
	doc    domain.Document
	vector []float32
}

func openDocStore(path string, readOnly bool) (*sql.DB, error) {
	dsn := path
	if readOnly {
		dsn += "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open docs db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping docs db: %w", err)
	}
	return db, nil
}

// loadDocs reads every row. Keys are the graph node keys.
func loadDocs(ctx context.Context, db *sql.DB, dims int) (map[uint64]storedDoc, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, id, content, metadata, vector FROM documents ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := make(map[uint64]storedDoc)
	for rows.Next() {
		var (
			key         int64
			id, content string
			metaRaw     string
			blob        []byte
		)
		if err := rows.Scan(&key, &id, &content, &metaRaw, &blob); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}

		meta := map[string]string{}
		if err := json.Unmarshal([]byte(metaRaw), &meta); err != nil {
			return nil, fmt.Errorf("document %s metadata: %w", id, err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("document %s vector: %w", id, err)
		}
		if len(vec) != dims {
			return nil, fmt.Errorf("document %s: %w: expected %d, got %d",
				id, domain.ErrDimensionMismatch, dims, len(vec))
		}

		out[uint64(key)] = storedDoc{
			key:    uint64(key),
			doc:    domain.Document{ID: id, Content: content, Metadata: meta},
			vector: vec,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func insertDocs(ctx context.Context, db *sql.DB, docs []storedDoc) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (key, id, content, metadata, vector) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		meta := d.doc.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		metaRaw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", d.doc.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, int64(d.key), d.doc.ID, d.doc.Content,
			string(metaRaw), encodeVector(d.vector)); err != nil {
			return fmt.Errorf("insert %s: %w", d.doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
