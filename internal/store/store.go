// Package store persists screened resumes with their engine scores and
// explanations.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"
	"resumescreen/internal/pipeline"
	"resumescreen/internal/types"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Store is the resume repository. SaveDetail is an upsert: saving a detail
// replaces the record and all of its engine scores and explanations.
type Store interface {
	SaveDetail(ctx context.Context, detail *types.ResumeDetail) error
	Get(ctx context.Context, id string) (*types.ResumeDetail, error)
	// List returns records newest first.
	List(ctx context.Context, filter types.ListFilter) ([]types.ResumeRecord, error)
	Delete(ctx context.Context, id string) error
	// Purge deletes every record and returns how many there were.
	Purge(ctx context.Context) (int64, error)
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *errors.Logger) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		p, err := OpenPostgres(ctx, cfg.PostgresURL, cfg.MaxConns, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported store driver: %q", cfg.Driver), nil)
	}
}

// Checkpointer saves pipeline checkpoints into a Store.
type Checkpointer struct {
	store  Store
	logger *errors.Logger
}

// NewCheckpointer wraps s as a pipeline checkpointer.
func NewCheckpointer(s Store, logger *errors.Logger) *Checkpointer {
	return &Checkpointer{store: s, logger: logger}
}

var _ pipeline.Checkpointer = (*Checkpointer)(nil)

// Checkpoint upserts detail.
func (c *Checkpointer) Checkpoint(ctx context.Context, phase pipeline.Phase, detail *types.ResumeDetail) error {
	if err := c.store.SaveDetail(ctx, detail); err != nil {
		return err
	}
	c.logger.Debug("Checkpoint saved", "resume_id", detail.ID, "phase", string(phase), "status", detail.Status)
	return nil
}

func notFound(id string) error {
	return errors.NewStorageError(errors.ErrCodeRecordNotFound, fmt.Sprintf("resume %s not found", id), nil).
		WithContext("resume_id", id)
}

func unavailable(op string, err error) error {
	return errors.NewStorageError(errors.ErrCodeStoreUnavailable, op, err)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.HasCode(err, errors.ErrCodeRecordNotFound)
}

func encodeSkillData(sd *types.SkillData) ([]byte, error) {
	if sd == nil {
		return nil, nil
	}
	return json.Marshal(sd)
}

func decodeSkillData(raw []byte) (*types.SkillData, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var sd types.SkillData
	if err := json.Unmarshal(raw, &sd); err != nil {
		return nil, fmt.Errorf("decode skill data: %w", err)
	}
	return &sd, nil
}

// whereClause builds the filter conditions; placeholder renders the n-th
// (1-based) bind parameter for the driver.
func whereClause(f types.ListFilter, placeholder func(n int) string) (string, []any) {
	var conds []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, "status = "+placeholder(len(args)))
	}
	if f.JDHash != "" {
		args = append(args, f.JDHash)
		conds = append(conds, "jd_hash = "+placeholder(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func cloneDetail(d *types.ResumeDetail) *types.ResumeDetail {
	out := *d
	if d.QualityScore != nil {
		v := *d.QualityScore
		out.QualityScore = &v
	}
	if d.FinalScore != nil {
		v := *d.FinalScore
		out.FinalScore = &v
	}
	if d.SkillData != nil {
		sd := types.SkillData{
			Matched:     append([]string{}, d.SkillData.Matched...),
			Missing:     append([]string{}, d.SkillData.Missing...),
			AllJDSkills: append([]string{}, d.SkillData.AllJDSkills...),
		}
		out.SkillData = &sd
	}
	out.EngineScores = append([]types.EngineScore{}, d.EngineScores...)
	out.Explanations = append([]types.Explanation{}, d.Explanations...)
	return &out
}
