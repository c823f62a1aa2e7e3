package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resumescreen/internal/errors"
	"resumescreen/internal/types"
)

// Postgres stores records in PostgreSQL through a pgx pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *errors.Logger
}

// OpenPostgres connects to databaseURL and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string, maxConns int32, logger *errors.Logger) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "postgres url is required", nil)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "cannot parse postgres url", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, unavailable("create postgres pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("ping postgres", err)
	}

	schema, err := schemaFS.ReadFile("schema/postgres.sql")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("read postgres schema: %w", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		pool.Close()
		return nil, unavailable("apply postgres schema", err)
	}

	logger.Info("Postgres store connected", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) SaveDetail(ctx context.Context, d *types.ResumeDetail) error {
	skillData, err := encodeSkillData(d.SkillData)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO resumes (`+recordColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (resume_id) DO UPDATE SET
				candidate_name = EXCLUDED.candidate_name,
				jd_hash = EXCLUDED.jd_hash,
				status = EXCLUDED.status,
				upload_time = EXCLUDED.upload_time,
				quality_score = EXCLUDED.quality_score,
				final_score = EXCLUDED.final_score,
				decision = EXCLUDED.decision,
				error_message = EXCLUDED.error_message,
				extracted_text = EXCLUDED.extracted_text,
				skill_data = EXCLUDED.skill_data,
				file_path = EXCLUDED.file_path`,
			d.ID, d.CandidateName, d.JDHash, d.Status, d.UploadTime.UTC(),
			d.QualityScore, d.FinalScore, d.Decision, d.ErrorMessage, d.ExtractedText,
			skillData, d.FilePath,
		)
		if err != nil {
			return unavailable("upsert resume", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM engine_scores WHERE resume_id = $1`, d.ID); err != nil {
			return unavailable("clear engine scores", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM explanations WHERE resume_id = $1`, d.ID); err != nil {
			return unavailable("clear explanations", err)
		}

		batch := &pgx.Batch{}
		for i, es := range d.EngineScores {
			batch.Queue(`INSERT INTO engine_scores (id, resume_id, position, engine_name, score) VALUES ($1, $2, $3, $4, $5)`,
				es.ID, d.ID, i, es.Engine, es.Score)
		}
		for i, ex := range d.Explanations {
			batch.Queue(`INSERT INTO explanations (id, resume_id, position, message) VALUES ($1, $2, $3, $4)`,
				ex.ID, d.ID, i, ex.Message)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return unavailable("insert resume children", err)
		}
		return nil
	})
}

func (p *Postgres) Get(ctx context.Context, id string) (*types.ResumeDetail, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM resumes WHERE resume_id = $1`, id)
	rec, err := scanPostgresRecord(row)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, unavailable("read resume", err)
	}
	d := &types.ResumeDetail{ResumeRecord: rec, EngineScores: []types.EngineScore{}, Explanations: []types.Explanation{}}

	rows, err := p.pool.Query(ctx,
		`SELECT id, engine_name, score FROM engine_scores WHERE resume_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, unavailable("read engine scores", err)
	}
	scores, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.EngineScore, error) {
		es := types.EngineScore{ResumeID: id}
		err := row.Scan(&es.ID, &es.Engine, &es.Score)
		return es, err
	})
	if err != nil {
		return nil, unavailable("scan engine scores", err)
	}
	d.EngineScores = append(d.EngineScores, scores...)

	rows, err = p.pool.Query(ctx,
		`SELECT id, message FROM explanations WHERE resume_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, unavailable("read explanations", err)
	}
	explanations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Explanation, error) {
		ex := types.Explanation{ResumeID: id}
		err := row.Scan(&ex.ID, &ex.Message)
		return ex, err
	})
	if err != nil {
		return nil, unavailable("scan explanations", err)
	}
	d.Explanations = append(d.Explanations, explanations...)
	return d, nil
}

func (p *Postgres) List(ctx context.Context, f types.ListFilter) ([]types.ResumeRecord, error) {
	where, args := whereClause(f, func(n int) string { return fmt.Sprintf("$%d", n) })
	query := `SELECT ` + recordColumns + ` FROM resumes` + where + ` ORDER BY upload_time DESC, resume_id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list resumes", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.ResumeRecord, error) {
		return scanPostgresRecord(row)
	})
	if err != nil {
		return nil, unavailable("scan resumes", err)
	}
	if out == nil {
		out = []types.ResumeRecord{}
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM resumes WHERE resume_id = $1`, id)
	if err != nil {
		return unavailable("delete resume", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (p *Postgres) Purge(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM resumes`)
	if err != nil {
		return 0, unavailable("purge resumes", err)
	}
	p.logger.Info("Purged resume store", "deleted", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func scanPostgresRecord(row pgx.Row) (types.ResumeRecord, error) {
	var rec types.ResumeRecord
	var skillData []byte
	if err := row.Scan(&rec.ID, &rec.CandidateName, &rec.JDHash, &rec.Status, &rec.UploadTime,
		&rec.QualityScore, &rec.FinalScore, &rec.Decision, &rec.ErrorMessage, &rec.ExtractedText,
		&skillData, &rec.FilePath); err != nil {
		return rec, err
	}
	sd, err := decodeSkillData(skillData)
	if err != nil {
		return rec, err
	}
	rec.SkillData = sd
	rec.UploadTime = rec.UploadTime.UTC()
	return rec, nil
}
