package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/docqa/internal/corpus"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/vectorspace"
)

// SnapshotSchemaVersion is bumped whenever the table layout changes.
const SnapshotSchemaVersion = 1

// snapshotTables must all exist in a readable snapshot.
var snapshotTables = []string{"meta", "chunks", "vocabulary", "vectors"}

// SnapshotMeta describes a persisted snapshot.
type SnapshotMeta struct {
	SchemaVersion int
	ChunkCount    int
	VocabSize     int
	DocCount      int
	Index         IndexConfig
	Analyzer      vectorspace.Options
	CorpusDigest  string
	CreatedAt     time.Time
	ToolVersion   string
}

// VectorRow is the stored document vector of one chunk.
type VectorRow struct {
	ID     corpus.ChunkID
	Vector vectorspace.Vector
}

// SnapshotRecord is the raw content of a snapshot file. It carries no
// cross-artifact guarantees beyond matching row counts; callers validate
// the rest.
type SnapshotRecord struct {
	Meta    SnapshotMeta
	Chunks  []corpus.Chunk
	Terms   []string
	IDF     []float64
	Vectors []VectorRow
}

// WriteSnapshot writes rec as a single SQLite file. The file is assembled
// next to path and renamed into place only after the transaction commits,
// so readers never observe a partial snapshot.
func WriteSnapshot(ctx context.Context, path string, rec *SnapshotRecord) error {
	if len(rec.Terms) != len(rec.IDF) {
		return qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("vocabulary has %d terms but %d idf weights", len(rec.Terms), len(rec.IDF)))
	}
	if len(rec.Vectors) != len(rec.Chunks) {
		return qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("snapshot has %d chunks but %d vectors", len(rec.Chunks), len(rec.Vectors)))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, fmt.Sprintf("failed to create directory %s", dir), err)
	}

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := writeSnapshotFile(ctx, tmpPath, rec); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	// Rename to final path (atomic on most filesystems)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, "failed to move snapshot into place", err)
	}

	slog.Debug("snapshot_written",
		slog.String("path", path),
		slog.Int("chunks", len(rec.Chunks)),
		slog.Int("vocabulary", len(rec.Terms)))
	return nil
}

func writeSnapshotFile(ctx context.Context, path string, rec *SnapshotRecord) (err error) {
	db, err := openSnapshotDB(path, false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = qaerrors.New(qaerrors.ErrCodeSnapshotWrite, "failed to close snapshot", cerr)
		}
	}()

	if err := initSnapshotSchema(ctx, db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertMeta(ctx, tx, rec.Meta); err != nil {
		return err
	}
	if err := insertChunks(ctx, tx, rec.Chunks); err != nil {
		return err
	}
	if err := insertVocabulary(ctx, tx, rec.Terms, rec.IDF); err != nil {
		return err
	}
	if err := insertVectors(ctx, tx, rec.Vectors); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, "failed to commit snapshot", err)
	}
	return nil
}

// ReadSnapshot loads every artifact from the snapshot at path.
func ReadSnapshot(ctx context.Context, path string) (*SnapshotRecord, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, qaerrors.New(qaerrors.ErrCodeSnapshotNotFound, fmt.Sprintf("no snapshot at %s", path), err).
				WithSuggestion("Run 'docqa build' to create one")
		}
		return nil, qaerrors.IOError(fmt.Sprintf("cannot stat snapshot %s", path), err)
	}

	if err := validateSnapshotIntegrity(path); err != nil {
		return nil, err
	}

	db, err := openSnapshotDB(path, true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rec := &SnapshotRecord{}
	if rec.Meta, err = readMeta(ctx, db); err != nil {
		return nil, err
	}
	if rec.Meta.SchemaVersion != SnapshotSchemaVersion {
		return nil, qaerrors.New(qaerrors.ErrCodeUnsupportedSnapshot,
			fmt.Sprintf("snapshot schema version %d, expected %d", rec.Meta.SchemaVersion, SnapshotSchemaVersion), nil).
			WithSuggestion("Rebuild the snapshot with this version of docqa")
	}
	if rec.Chunks, err = readChunks(ctx, db); err != nil {
		return nil, err
	}
	if rec.Terms, rec.IDF, err = readVocabulary(ctx, db); err != nil {
		return nil, err
	}
	if rec.Vectors, err = readVectors(ctx, db, rec.Meta.VocabSize); err != nil {
		return nil, err
	}

	switch {
	case len(rec.Chunks) != rec.Meta.ChunkCount:
		return nil, qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("meta records %d chunks but %d are stored", rec.Meta.ChunkCount, len(rec.Chunks)))
	case len(rec.Terms) != rec.Meta.VocabSize:
		return nil, qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("meta records %d terms but %d are stored", rec.Meta.VocabSize, len(rec.Terms)))
	case len(rec.Vectors) != len(rec.Chunks):
		return nil, qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("%d chunks but %d vectors are stored", len(rec.Chunks), len(rec.Vectors)))
	}

	return rec, nil
}

// validateSnapshotIntegrity runs the SQLite integrity check and verifies
// that every snapshot table is present.
func validateSnapshotIntegrity(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "cannot open snapshot for validation", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "integrity check failed", err)
	}
	if result != "ok" {
		return qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, fmt.Sprintf("snapshot corrupted: %s", result), nil)
	}

	for _, table := range snapshotTables {
		var count int
		err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		if err != nil {
			return qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "cannot query schema", err)
		}
		if count == 0 {
			return qaerrors.InconsistentSnapshotError(fmt.Sprintf("snapshot is missing the %s table", table))
		}
	}
	return nil
}

func openSnapshotDB(path string, readOnly bool) (*sql.DB, error) {
	dsn := path
	if readOnly {
		dsn += "?mode=ro"
	}

	// IMPORTANT: Use modernc.org/sqlite driver (pure Go, no CGO)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to open snapshot", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}
	if !readOnly {
		// Rollback journal keeps the snapshot a single file for the rename.
		pragmas = append(pragmas,
			"PRAGMA journal_mode = DELETE",
			"PRAGMA synchronous = FULL",
		)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to set pragma", err)
		}
	}
	return db, nil
}

func initSnapshotSchema(ctx context.Context, db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY,
			header TEXT NOT NULL,
			body TEXT NOT NULL,
			fingerprint TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS vocabulary (
			position INTEGER PRIMARY KEY,
			term TEXT NOT NULL UNIQUE,
			idf REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS vectors (
			chunk_id INTEGER PRIMARY KEY,
			nnz INTEGER NOT NULL,
			data BLOB NOT NULL
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, "failed to create schema", err)
	}
	return nil
}

func insertMeta(ctx context.Context, tx *sql.Tx, m SnapshotMeta) error {
	values := map[string]string{
		"schema_version": strconv.Itoa(SnapshotSchemaVersion),
		"chunk_count":    strconv.Itoa(m.ChunkCount),
		"vocab_size":     strconv.Itoa(m.VocabSize),
		"doc_count":      strconv.Itoa(m.DocCount),
		"index_backend":  string(m.Index.Backend),
		"hnsw_m":         strconv.Itoa(m.Index.M),
		"hnsw_ef_search": strconv.Itoa(m.Index.EfSearch),
		"stemming":       strconv.FormatBool(m.Analyzer.Stemming),
		"corpus_digest":  m.CorpusDigest,
		"created_at":     m.CreatedAt.UTC().Format(time.RFC3339),
		"tool_version":   m.ToolVersion,
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`)
	if err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, "failed to prepare meta insert", err)
	}
	defer stmt.Close()

	for k, v := range values {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, fmt.Sprintf("failed to write meta %s", k), err)
		}
	}
	return nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, chunks []corpus.Chunk) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (id, header, body, fingerprint) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, "failed to prepare chunk insert", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, int64(c.ID), c.Header, c.Body, c.Fingerprint); err != nil {
			return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, fmt.Sprintf("failed to write chunk %d", c.ID), err)
		}
	}
	return nil
}

func insertVocabulary(ctx context.Context, tx *sql.Tx, terms []string, idf []float64) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vocabulary (position, term, idf) VALUES (?, ?, ?)`)
	if err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, "failed to prepare vocabulary insert", err)
	}
	defer stmt.Close()

	for i, term := range terms {
		if _, err := stmt.ExecContext(ctx, i, term, idf[i]); err != nil {
			return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, fmt.Sprintf("failed to write term %q", term), err)
		}
	}
	return nil
}

func insertVectors(ctx context.Context, tx *sql.Tx, rows []VectorRow) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vectors (chunk_id, nnz, data) VALUES (?, ?, ?)`)
	if err != nil {
		return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, "failed to prepare vector insert", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		data := encodeSparse(row.Vector)
		if _, err := stmt.ExecContext(ctx, int64(row.ID), row.Vector.NNZ(), data); err != nil {
			return qaerrors.New(qaerrors.ErrCodeSnapshotWrite, fmt.Sprintf("failed to write vector %d", row.ID), err)
		}
	}
	return nil
}

func readMeta(ctx context.Context, db *sql.DB) (SnapshotMeta, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return SnapshotMeta{}, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to read meta", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return SnapshotMeta{}, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to scan meta", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return SnapshotMeta{}, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to read meta", err)
	}

	p := metaParser{values: values}
	m := SnapshotMeta{
		SchemaVersion: p.integer("schema_version"),
		ChunkCount:    p.integer("chunk_count"),
		VocabSize:     p.integer("vocab_size"),
		DocCount:      p.integer("doc_count"),
		Index: IndexConfig{
			Backend:  Backend(p.text("index_backend")),
			M:        p.integer("hnsw_m"),
			EfSearch: p.integer("hnsw_ef_search"),
		},
		Analyzer:     vectorspace.Options{Stemming: p.boolean("stemming")},
		CorpusDigest: p.text("corpus_digest"),
		CreatedAt:    p.timestamp("created_at"),
		ToolVersion:  values["tool_version"],
	}
	if p.err != nil {
		return SnapshotMeta{}, p.err
	}
	return m, nil
}

// metaParser reads typed meta values and keeps the first failure.
type metaParser struct {
	values map[string]string
	err    error
}

func (p *metaParser) text(key string) string {
	v, ok := p.values[key]
	if !ok && p.err == nil {
		p.err = qaerrors.InconsistentSnapshotError(fmt.Sprintf("snapshot meta is missing %s", key))
	}
	return v
}

func (p *metaParser) integer(key string) int {
	v := p.text(key)
	if p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = qaerrors.InconsistentSnapshotError(fmt.Sprintf("snapshot meta %s is not an integer: %q", key, v))
	}
	return n
}

func (p *metaParser) boolean(key string) bool {
	v := p.text(key)
	if p.err != nil {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = qaerrors.InconsistentSnapshotError(fmt.Sprintf("snapshot meta %s is not a boolean: %q", key, v))
	}
	return b
}

func (p *metaParser) timestamp(key string) time.Time {
	v := p.text(key)
	if p.err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		p.err = qaerrors.InconsistentSnapshotError(fmt.Sprintf("snapshot meta %s is not a timestamp: %q", key, v))
	}
	return t
}

func readChunks(ctx context.Context, db *sql.DB) ([]corpus.Chunk, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, header, body, fingerprint FROM chunks ORDER BY id`)
	if err != nil {
		return nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to read chunks", err)
	}
	defer rows.Close()

	var chunks []corpus.Chunk
	for rows.Next() {
		var c corpus.Chunk
		var id int64
		if err := rows.Scan(&id, &c.Header, &c.Body, &c.Fingerprint); err != nil {
			return nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to scan chunk", err)
		}
		c.ID = corpus.ChunkID(id)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to read chunks", err)
	}
	return chunks, nil
}

func readVocabulary(ctx context.Context, db *sql.DB) ([]string, []float64, error) {
	rows, err := db.QueryContext(ctx, `SELECT position, term, idf FROM vocabulary ORDER BY position`)
	if err != nil {
		return nil, nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to read vocabulary", err)
	}
	defer rows.Close()

	var terms []string
	var idf []float64
	for rows.Next() {
		var pos int
		var term string
		var weight float64
		if err := rows.Scan(&pos, &term, &weight); err != nil {
			return nil, nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to scan term", err)
		}
		if pos != len(terms) {
			return nil, nil, qaerrors.InconsistentSnapshotError(
				fmt.Sprintf("vocabulary has a gap at position %d", len(terms)))
		}
		terms = append(terms, term)
		idf = append(idf, weight)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to read vocabulary", err)
	}
	return terms, idf, nil
}

func readVectors(ctx context.Context, db *sql.DB, dim int) ([]VectorRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT chunk_id, nnz, data FROM vectors ORDER BY chunk_id`)
	if err != nil {
		return nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to read vectors", err)
	}
	defer rows.Close()

	var out []VectorRow
	for rows.Next() {
		var id int64
		var nnz int
		var data []byte
		if err := rows.Scan(&id, &nnz, &data); err != nil {
			return nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to scan vector", err)
		}
		v, err := decodeSparse(data, nnz, dim)
		if err != nil {
			return nil, qaerrors.InconsistentSnapshotError(fmt.Sprintf("vector of chunk %d: %v", id, err))
		}
		out = append(out, VectorRow{ID: corpus.ChunkID(id), Vector: v})
	}
	if err := rows.Err(); err != nil {
		return nil, qaerrors.New(qaerrors.ErrCodeSnapshotCorrupt, "failed to read vectors", err)
	}
	return out, nil
}

// encodeSparse lays out each entry as a little-endian uint32 column
// followed by the float32 value bits.
func encodeSparse(v vectorspace.Vector) []byte {
	buf := make([]byte, 8*len(v.Indices))
	for i, col := range v.Indices {
		binary.LittleEndian.PutUint32(buf[8*i:], uint32(col))
		binary.LittleEndian.PutUint32(buf[8*i+4:], math.Float32bits(v.Values[i]))
	}
	return buf
}

func decodeSparse(data []byte, nnz, dim int) (vectorspace.Vector, error) {
	if len(data) != 8*nnz {
		return vectorspace.Vector{}, fmt.Errorf("expected %d bytes for %d entries, got %d", 8*nnz, nnz, len(data))
	}
	v := vectorspace.Vector{
		Dim:     dim,
		Indices: make([]int32, nnz),
		Values:  make([]float32, nnz),
	}
	prev := int64(-1)
	for i := 0; i < nnz; i++ {
		col := int64(binary.LittleEndian.Uint32(data[8*i:]))
		if col <= prev || col >= int64(dim) {
			return vectorspace.Vector{}, fmt.Errorf("column %d out of order or beyond dimension %d", col, dim)
		}
		prev = col
		v.Indices[i] = int32(col)
		v.Values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[8*i+4:]))
	}
	return v, nil
}
