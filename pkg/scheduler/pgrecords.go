package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRecordSource is the production RecordSource, reading sampled
// records directly from the tables internal/sqlutil's migrations
// create (spc_drift, psi_drift, custom_drift, llm_drift,
// genai_eval_record).
type PgRecordSource struct {
	pool *pgxpool.Pool
}

// NewPgRecordSource wraps a pool for use as a RecordSource.
func NewPgRecordSource(pool *pgxpool.Pool) *PgRecordSource {
	return &PgRecordSource{pool: pool}
}

func (r *PgRecordSource) SpcRecordsSince(ctx context.Context, entityID string, since time.Time) ([]SpcRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT feature, value, created_at FROM spc_drift
		WHERE entity_id = $1 AND created_at > $2
		ORDER BY created_at`, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("querying spc_drift: %w", err)
	}
	defer rows.Close()

	var out []SpcRecord
	for rows.Next() {
		var rec SpcRecord
		rec.EntityID = entityID
		if err := rows.Scan(&rec.Feature, &rec.Value, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning spc_drift row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PgRecordSource) PsiRecordsSince(ctx context.Context, entityID string, since time.Time) ([]PsiRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT feature, bin_id, bin_count, created_at FROM psi_drift
		WHERE entity_id = $1 AND created_at > $2
		ORDER BY created_at`, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("querying psi_drift: %w", err)
	}
	defer rows.Close()

	var out []PsiRecord
	for rows.Next() {
		var rec PsiRecord
		rec.EntityID = entityID
		if err := rows.Scan(&rec.Feature, &rec.BinID, &rec.BinCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning psi_drift row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PgRecordSource) CustomRecordsSince(ctx context.Context, entityID string, since time.Time) ([]CustomRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT metric, value, created_at FROM custom_drift
		WHERE entity_id = $1 AND created_at > $2
		ORDER BY created_at`, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("querying custom_drift: %w", err)
	}
	defer rows.Close()

	var out []CustomRecord
	for rows.Next() {
		var rec CustomRecord
		rec.EntityID = entityID
		if err := rows.Scan(&rec.Metric, &rec.Value, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning custom_drift row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PgRecordSource) LLMRecordsSince(ctx context.Context, entityID string, since time.Time) ([]LLMRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT request, response, created_at FROM llm_drift
		WHERE entity_id = $1 AND created_at > $2
		ORDER BY created_at`, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("querying llm_drift: %w", err)
	}
	defer rows.Close()

	var out []LLMRecord
	for rows.Next() {
		var rec LLMRecord
		rec.EntityID = entityID
		if err := rows.Scan(&rec.Request, &rec.Response, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning llm_drift row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PgRecordSource) GenAIRecordsSince(ctx context.Context, entityID string, since time.Time) ([]GenAIRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT context, created_at FROM genai_eval_record
		WHERE entity_id = $1 AND created_at > $2
		ORDER BY created_at`, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("querying genai_eval_record: %w", err)
	}
	defer rows.Close()

	var out []GenAIRecord
	for rows.Next() {
		var rec GenAIRecord
		var raw []byte
		rec.EntityID = entityID
		if err := rows.Scan(&raw, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning genai_eval_record row: %w", err)
		}
		if err := json.Unmarshal(raw, &rec.Context); err != nil {
			return nil, fmt.Errorf("decoding genai_eval_record context: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
