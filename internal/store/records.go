package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-pipeline/internal/types"
)

// recordColumns is the column list shared by every read and write of the
// job records table. The scan and argument builders below must stay in the
// same order.
const recordColumns = `job_id, title, company, location, link, posted_age, promoted, easy_apply,
	description, company_overview, contacts, requirements, scores, total_score,
	tailored_summary, tailored_bullets, tailored_skills, tailored_html_path, tailored_pdf_path,
	page_count, retailoring_attempts, tailored_score, score_delta, status, notes,
	created_at, updated_at`

const recordPlaceholders = `$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27`

// LoadAll returns every record in the table ordered by creation time.
// A row whose status is not a known value fails the load outright: the table
// is only ever written by this pipeline, so an unknown status means the
// persisted copy cannot be trusted.
func (s *Store) LoadAll(ctx context.Context) ([]types.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM job_records ORDER BY created_at, job_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// SaveAll replaces the persisted table with the given records in a single
// transaction. On any failure the transaction rolls back and the previous
// table contents remain intact.
func (s *Store) SaveAll(ctx context.Context, records []types.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			fmt.Printf("Rollback error: %v\n", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM job_records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	for i := range records {
		args, err := recordArgs(&records[i], time.Now())
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO job_records (`+recordColumns+`) VALUES (`+recordPlaceholders+`)`,
			args...)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", records[i].JobID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

// UpdateRecord commits a single record's current state. Inserts the row if it
// does not exist yet, so a record discovered mid-run commits the same way as
// an updated one.
func (s *Store) UpdateRecord(ctx context.Context, rec *types.Record) error {
	args, err := recordArgs(rec, time.Now())
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO job_records (`+recordColumns+`) VALUES (`+recordPlaceholders+`)
		 ON CONFLICT (job_id) DO UPDATE SET
		     title = EXCLUDED.title,
		     company = EXCLUDED.company,
		     location = EXCLUDED.location,
		     link = EXCLUDED.link,
		     posted_age = EXCLUDED.posted_age,
		     promoted = EXCLUDED.promoted,
		     easy_apply = EXCLUDED.easy_apply,
		     description = EXCLUDED.description,
		     company_overview = EXCLUDED.company_overview,
		     contacts = EXCLUDED.contacts,
		     requirements = EXCLUDED.requirements,
		     scores = EXCLUDED.scores,
		     total_score = EXCLUDED.total_score,
		     tailored_summary = EXCLUDED.tailored_summary,
		     tailored_bullets = EXCLUDED.tailored_bullets,
		     tailored_skills = EXCLUDED.tailored_skills,
		     tailored_html_path = EXCLUDED.tailored_html_path,
		     tailored_pdf_path = EXCLUDED.tailored_pdf_path,
		     page_count = EXCLUDED.page_count,
		     retailoring_attempts = EXCLUDED.retailoring_attempts,
		     tailored_score = EXCLUDED.tailored_score,
		     score_delta = EXCLUDED.score_delta,
		     status = EXCLUDED.status,
		     notes = EXCLUDED.notes,
		     updated_at = EXCLUDED.updated_at`,
		args...)
	if err != nil {
		return fmt.Errorf("failed to update record %s: %w", rec.JobID, err)
	}
	return nil
}

// InsertNew inserts a newly discovered record. Returns false if a record with
// the same identifier already exists; the existing row is never touched.
func (s *Store) InsertNew(ctx context.Context, rec *types.Record) (bool, error) {
	args, err := recordArgs(rec, time.Now())
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO job_records (`+recordColumns+`) VALUES (`+recordPlaceholders+`)
		 ON CONFLICT (job_id) DO NOTHING`,
		args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert record %s: %w", rec.JobID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// StatusCounts returns the number of records per status.
func (s *Store) StatusCounts(ctx context.Context) (map[types.Status]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM job_records GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Status]int)
	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		status, ok := types.ParseStatus(statusStr)
		if !ok {
			return nil, fmt.Errorf("unknown status %q in records table", statusStr)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}
	return counts, nil
}

// scanRecord reads one row in recordColumns order.
func scanRecord(rows pgx.Rows) (*types.Record, error) {
	var rec types.Record
	var statusStr string
	var contactsJSON, requirementsJSON, scoresJSON []byte

	err := rows.Scan(&rec.JobID, &rec.Title, &rec.Company, &rec.Location, &rec.Link,
		&rec.PostedAge, &rec.Promoted, &rec.EasyApply,
		&rec.Description, &rec.CompanyOverview, &contactsJSON, &requirementsJSON, &scoresJSON,
		&rec.TotalScore,
		&rec.TailoredSummary, &rec.TailoredBullets, &rec.TailoredSkills,
		&rec.TailoredHTMLPath, &rec.TailoredPDFPath,
		&rec.PageCount, &rec.RetailoringAttempts, &rec.TailoredScore, &rec.ScoreDelta,
		&statusStr, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	status, ok := types.ParseStatus(statusStr)
	if !ok {
		return nil, fmt.Errorf("record %s has unknown status %q", rec.JobID, statusStr)
	}
	rec.Status = status

	// Parse JSONB fields
	if contactsJSON != nil {
		_ = json.Unmarshal(contactsJSON, &rec.Contacts)
	}
	if requirementsJSON != nil {
		_ = json.Unmarshal(requirementsJSON, &rec.Requirements)
	}
	if scoresJSON != nil {
		_ = json.Unmarshal(scoresJSON, &rec.Scores)
	}

	return &rec, nil
}

// recordArgs builds the insert argument list in recordColumns order.
func recordArgs(rec *types.Record, now time.Time) ([]any, error) {
	contactsJSON, err := marshalJSONB(rec.Contacts, len(rec.Contacts) > 0)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contacts for %s: %w", rec.JobID, err)
	}
	requirementsJSON, err := marshalJSONB(rec.Requirements, rec.Requirements != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal requirements for %s: %w", rec.JobID, err)
	}
	scoresJSON, err := marshalJSONB(rec.Scores, rec.Scores != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scores for %s: %w", rec.JobID, err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	return []any{
		rec.JobID, rec.Title, rec.Company, rec.Location, rec.Link,
		rec.PostedAge, rec.Promoted, rec.EasyApply,
		rec.Description, rec.CompanyOverview, contactsJSON, requirementsJSON, scoresJSON,
		rec.TotalScore,
		rec.TailoredSummary, rec.TailoredBullets, rec.TailoredSkills,
		rec.TailoredHTMLPath, rec.TailoredPDFPath,
		rec.PageCount, rec.RetailoringAttempts, rec.TailoredScore, rec.ScoreDelta,
		string(rec.Status), rec.Notes, createdAt, now,
	}, nil
}

// marshalJSONB serializes a value for a JSONB column, or nil when the value
// is absent so the column stays NULL rather than holding "null".
func marshalJSONB(v any, present bool) ([]byte, error) {
	if !present {
		return nil, nil
	}
	return json.Marshal(v)
}
