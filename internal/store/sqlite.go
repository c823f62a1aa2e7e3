package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"resumescreen/internal/errors"
	"resumescreen/internal/types"
)

// sqliteTimeLayout sorts lexically in upload order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const recordColumns = `resume_id, candidate_name, jd_hash, status, upload_time, quality_score, final_score,
	decision, error_message, extracted_text, skill_data, file_path`

// SQLite stores records in a single SQLite database file.
type SQLite struct {
	db     *sql.DB
	logger *errors.Logger
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, logger *errors.Logger) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, unavailable(fmt.Sprintf("cannot create directory for %s", path), err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, unavailable("open sqlite database", err)
	}
	db.SetMaxOpenConns(1) // single writer

	schema, err := schemaFS.ReadFile("schema/sqlite.sql")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read sqlite schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		_ = db.Close()
		return nil, unavailable("apply sqlite schema", err)
	}

	logger.Debug("SQLite store opened", "path", path)
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) SaveDetail(ctx context.Context, d *types.ResumeDetail) error {
	skillData, err := encodeSkillData(d.SkillData)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO resumes (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (resume_id) DO UPDATE SET
			candidate_name = excluded.candidate_name,
			jd_hash = excluded.jd_hash,
			status = excluded.status,
			upload_time = excluded.upload_time,
			quality_score = excluded.quality_score,
			final_score = excluded.final_score,
			decision = excluded.decision,
			error_message = excluded.error_message,
			extracted_text = excluded.extracted_text,
			skill_data = excluded.skill_data,
			file_path = excluded.file_path`,
		d.ID, d.CandidateName, d.JDHash, d.Status, d.UploadTime.UTC().Format(sqliteTimeLayout),
		d.QualityScore, d.FinalScore, d.Decision, d.ErrorMessage, d.ExtractedText,
		nullableText(skillData), d.FilePath,
	)
	if err != nil {
		return unavailable("upsert resume", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM engine_scores WHERE resume_id = ?`, d.ID); err != nil {
		return unavailable("clear engine scores", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM explanations WHERE resume_id = ?`, d.ID); err != nil {
		return unavailable("clear explanations", err)
	}
	for i, es := range d.EngineScores {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO engine_scores (id, resume_id, position, engine_name, score) VALUES (?, ?, ?, ?, ?)`,
			es.ID, d.ID, i, es.Engine, es.Score); err != nil {
			return unavailable("insert engine score", err)
		}
	}
	for i, ex := range d.Explanations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO explanations (id, resume_id, position, message) VALUES (?, ?, ?, ?)`,
			ex.ID, d.ID, i, ex.Message); err != nil {
			return unavailable("insert explanation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit resume", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*types.ResumeDetail, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM resumes WHERE resume_id = ?`, id)
	rec, err := scanSQLiteRecord(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, unavailable("read resume", err)
	}
	d := &types.ResumeDetail{ResumeRecord: rec}
	if d.EngineScores, err = s.engineScores(ctx, id); err != nil {
		return nil, err
	}
	if d.Explanations, err = s.explanations(ctx, id); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *SQLite) engineScores(ctx context.Context, id string) ([]types.EngineScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, engine_name, score FROM engine_scores WHERE resume_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, unavailable("read engine scores", err)
	}
	defer rows.Close()

	out := []types.EngineScore{}
	for rows.Next() {
		es := types.EngineScore{ResumeID: id}
		if err := rows.Scan(&es.ID, &es.Engine, &es.Score); err != nil {
			return nil, unavailable("scan engine score", err)
		}
		out = append(out, es)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read engine scores", err)
	}
	return out, nil
}

func (s *SQLite) explanations(ctx context.Context, id string) ([]types.Explanation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message FROM explanations WHERE resume_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, unavailable("read explanations", err)
	}
	defer rows.Close()

	out := []types.Explanation{}
	for rows.Next() {
		ex := types.Explanation{ResumeID: id}
		if err := rows.Scan(&ex.ID, &ex.Message); err != nil {
			return nil, unavailable("scan explanation", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read explanations", err)
	}
	return out, nil
}

func (s *SQLite) List(ctx context.Context, f types.ListFilter) ([]types.ResumeRecord, error) {
	where, args := whereClause(f, func(int) string { return "?" })
	query := `SELECT ` + recordColumns + ` FROM resumes` + where + ` ORDER BY upload_time DESC, resume_id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list resumes", err)
	}
	defer rows.Close()

	out := []types.ResumeRecord{}
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, unavailable("scan resume", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM engine_scores WHERE resume_id = ?`,
		`DELETE FROM explanations WHERE resume_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return unavailable("delete resume children", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM resumes WHERE resume_id = ?`, id)
	if err != nil {
		return unavailable("delete resume", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit delete", err)
	}
	return nil
}

func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM engine_scores`); err != nil {
		return 0, unavailable("purge engine scores", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM explanations`); err != nil {
		return 0, unavailable("purge explanations", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM resumes`)
	if err != nil {
		return 0, unavailable("purge resumes", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit purge", err)
	}
	s.logger.Info("Purged resume store", "deleted", n)
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (types.ResumeRecord, error) {
	var rec types.ResumeRecord
	var uploaded string
	var quality, final sql.NullFloat64
	var skillData sql.NullString
	if err := row.Scan(&rec.ID, &rec.CandidateName, &rec.JDHash, &rec.Status, &uploaded,
		&quality, &final, &rec.Decision, &rec.ErrorMessage, &rec.ExtractedText,
		&skillData, &rec.FilePath); err != nil {
		return rec, err
	}

	t, err := time.Parse(sqliteTimeLayout, uploaded)
	if err != nil {
		return rec, fmt.Errorf("parse upload time %q: %w", uploaded, err)
	}
	rec.UploadTime = t
	if quality.Valid {
		rec.QualityScore = &quality.Float64
	}
	if final.Valid {
		rec.FinalScore = &final.Float64
	}
	if rec.SkillData, err = decodeSkillData([]byte(skillData.String)); err != nil {
		return rec, err
	}
	return rec, nil
}

func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
