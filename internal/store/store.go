// Package store persists translation jobs, their per-dimension review
// scores, accumulated translation memory, and glossary terms in a local
// SQLite database. Memory source keys are NFC-normalized so visually
// identical strings hit the same row.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/tradqa/internal/fuzz"
	"github.com/valpere/tradqa/internal/glossary"
	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/tmx"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_jobs (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		review_score REAL,
		review_explanation TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS dimension_scores (
		job_id TEXT NOT NULL,
		dimension TEXT NOT NULL,
		score REAL NOT NULL,
		explanation TEXT,
		PRIMARY KEY (job_id, dimension),
		FOREIGN KEY (job_id) REFERENCES translation_jobs(id)
	);

	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		target_text TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_lang, target_lang, source_term)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_scores_job ON dimension_scores(job_id);
	CREATE INDEX IF NOT EXISTS idx_glossary_lookup ON glossary(source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent memory key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// SaveJob persists a finished job and its dimension scores in one
// transaction. Jobs without an ID are rejected.
func (s *Store) SaveJob(ctx context.Context, st *job.State) error {
	if st.ID == "" {
		return fmt.Errorf("job has no ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var score sql.NullFloat64
	if st.ReviewScore != nil {
		score = sql.NullFloat64{Float64: *st.ReviewScore, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_jobs (id, source_text, source_lang, target_lang, translated_text, review_score, review_explanation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.OriginalContent, st.SourceLanguage, st.TargetLanguage, st.TranslatedContent, score, st.ReviewExplanation)
	if err != nil {
		return err
	}

	for dim, sc := range st.Dimensions {
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO dimension_scores (job_id, dimension, score, explanation) VALUES (?, ?, ?, ?)`,
			st.ID, string(dim), sc.Value, sc.Explanation)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// JobRecord is a persisted job row.
type JobRecord struct {
	ID                string
	SourceText        string
	SourceLang        string
	TargetLang        string
	TranslatedText    string
	ReviewScore       *float64
	ReviewExplanation string
	CreatedAt         time.Time
}

// GetJob returns a job row and its dimension scores.
func (s *Store) GetJob(ctx context.Context, id string) (*JobRecord, map[job.Dimension]job.Score, error) {
	var rec JobRecord
	var score sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, translated_text, review_score, review_explanation, created_at
		 FROM translation_jobs WHERE id = ?`, id).
		Scan(&rec.ID, &rec.SourceText, &rec.SourceLang, &rec.TargetLang, &rec.TranslatedText, &score, &rec.ReviewExplanation, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, nil, err
	}
	if score.Valid {
		rec.ReviewScore = &score.Float64
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT dimension, score, explanation FROM dimension_scores WHERE job_id = ?`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	dims := make(map[job.Dimension]job.Score)
	for rows.Next() {
		var dim string
		var sc job.Score
		if err := rows.Scan(&dim, &sc.Value, &sc.Explanation); err != nil {
			return nil, nil, err
		}
		dims[job.Dimension(dim)] = sc
	}
	return &rec, dims, rows.Err()
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, translated_text, review_score, review_explanation, created_at
		 FROM translation_jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []JobRecord
	for rows.Next() {
		var rec JobRecord
		var score sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.SourceText, &rec.SourceLang, &rec.TargetLang, &rec.TranslatedText, &score, &rec.ReviewExplanation, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if score.Valid {
			rec.ReviewScore = &score.Float64
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Cached returns the remembered translation for an exact (normalized)
// source match and bumps its usage count.
func (s *Store) Cached(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	key := normalizeText(sourceText)

	var target string
	var invalidated bool
	err := s.db.QueryRowContext(ctx,
		`SELECT target_text, invalidated FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		key, sourceLang, targetLang).Scan(&target, &invalidated)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), key, sourceLang, targetLang)
	return target, true, err
}

// FuzzyCached returns the best remembered translation whose source reaches
// at least threshold similarity (0–100) to sourceText. Texts longer than
// 1000 runes are not fuzzy-matched to bound the scan cost.
func (s *Store) FuzzyCached(ctx context.Context, sourceText, sourceLang, targetLang string, threshold float64) (string, bool, error) {
	if threshold <= 0 {
		return "", false, nil
	}

	key := normalizeText(sourceText)
	const maxFuzzyRunes = 1000
	if len([]rune(key)) > maxFuzzyRunes {
		return "", false, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_text, target_text FROM translation_memory
		 WHERE source_lang = ? AND target_lang = ? AND NOT invalidated`,
		sourceLang, targetLang)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	var best string
	bestScore := 0.0
	keyLen := len([]rune(key))

	for rows.Next() {
		var src, tgt string
		if err := rows.Scan(&src, &tgt); err != nil {
			return "", false, err
		}

		// Length pre-filter: skip the edit distance when the size gap alone
		// rules the row out.
		srcLen := len([]rune(src))
		maxL, diff := keyLen, keyLen-srcLen
		if srcLen > maxL {
			maxL = srcLen
		}
		if diff < 0 {
			diff = -diff
		}
		if maxL > 0 && 100.0*(1.0-float64(diff)/float64(maxL)) < threshold {
			continue
		}

		if score := fuzz.Ratio(key, src); score >= threshold && score > bestScore {
			bestScore = score
			best = tgt
		}
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}

	if best != "" {
		return best, true, nil
	}
	return "", false, nil
}

// Remember stores a finished translation in memory, replacing any previous
// entry for the same normalized source and language pair.
func (s *Store) Remember(ctx context.Context, sourceText, sourceLang, targetLang, targetText string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, target_text, usage_count, invalidated, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		uuid.NewString(), normalizeText(sourceText), sourceLang, targetLang, targetText, now, now)
	return err
}

// MemoryEntries returns the active memory rows for a language pair as
// review-ready entries.
func (s *Store) MemoryEntries(ctx context.Context, sourceLang, targetLang string) ([]tmx.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_text, target_text, usage_count FROM translation_memory
		 WHERE source_lang = ? AND target_lang = ? AND NOT invalidated
		 ORDER BY usage_count DESC, last_used DESC`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []tmx.Entry
	for rows.Next() {
		e := tmx.Entry{SourceLang: sourceLang, TargetLang: targetLang}
		if err := rows.Scan(&e.Source, &e.Target, &e.UsageCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ImportMemory bulk-loads parsed TMX entries into the memory table.
// Returns the number of entries written.
func (s *Store) ImportMemory(ctx context.Context, entries []tmx.Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, e := range entries {
		usage := e.UsageCount
		if usage <= 0 {
			usage = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, target_text, usage_count)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), normalizeText(e.Source), e.SourceLang, e.TargetLang, e.Target, usage)
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, tx.Commit()
}

// InvalidateMemory soft-deletes a memory entry; lookups skip it but the row
// stays for auditing.
func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MemoryStats summarises translation memory usage.
type MemoryStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

func (s *Store) Stats(ctx context.Context) (*MemoryStats, error) {
	stats := &MemoryStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GlossaryRecord is a persisted glossary row.
type GlossaryRecord struct {
	ID         string
	SourceLang string
	TargetLang string
	SourceTerm string
	TargetTerm string
	CreatedAt  time.Time
}

// AddGlossaryTerm inserts or replaces a glossary entry.
func (s *Store) AddGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO glossary (id, source_lang, target_lang, source_term, target_term)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), sourceLang, targetLang, sourceTerm, targetTerm)
	return err
}

// GlossaryTerms returns the stored terminology for a language pair, ready
// to merge with file-based glossaries.
func (s *Store) GlossaryTerms(ctx context.Context, sourceLang, targetLang string) (glossary.Glossary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term FROM glossary WHERE source_lang = ? AND target_lang = ?`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make(glossary.Glossary)
	for rows.Next() {
		var src, tgt string
		if err := rows.Scan(&src, &tgt); err != nil {
			return nil, err
		}
		terms[src] = tgt
	}
	return terms, rows.Err()
}

// ListGlossaryTerms returns glossary entries, optionally filtered by
// language pair (empty strings match everything).
func (s *Store) ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]GlossaryRecord, error) {
	query := `SELECT id, source_lang, target_lang, source_term, target_term, created_at FROM glossary`
	var args []interface{}

	switch {
	case sourceLang != "" && targetLang != "":
		query += ` WHERE source_lang = ? AND target_lang = ?`
		args = append(args, sourceLang, targetLang)
	case sourceLang != "":
		query += ` WHERE source_lang = ?`
		args = append(args, sourceLang)
	case targetLang != "":
		query += ` WHERE target_lang = ?`
		args = append(args, targetLang)
	}
	query += ` ORDER BY source_lang, target_lang, source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryRecord
	for rows.Next() {
		var e GlossaryRecord
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry by ID.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE id = ?`, id)
	return err
}
