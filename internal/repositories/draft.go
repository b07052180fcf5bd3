package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/shared"
)

const draftColumns = `id, sequence, name, entries, active, created_at, updated_at`

// DraftRepository persists working playlists.
type DraftRepository struct {
	db *sql.DB
}

// NewDraftRepository creates a new DraftRepository with the given database connection
func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Create inserts a new draft with generated ID and sequence. An active draft deactivates every other draft.
func (r *DraftRepository) Create(draft *models.Draft) error {
	sequence, err := NextSequence(r.db, "drafts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	entries, err := encodeEntries(draft.Playlist.Entries)
	if err != nil {
		return err
	}

	now := time.Now()
	draft.ID = shared.GenerateID()
	draft.Sequence = sequence
	draft.CreatedAt = now
	draft.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if draft.Active {
		if _, err := tx.Exec(`UPDATE drafts SET active = 0 WHERE active = 1`); err != nil {
			return fmt.Errorf("failed to deactivate drafts: %w", err)
		}
	}

	query := `
		INSERT INTO drafts (id, sequence, name, entries, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query, draft.ID, sequence, draft.Playlist.Name, entries, draft.Active, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert draft: %w", err)
	}

	return tx.Commit()
}

// Get retrieves a draft by ID, excluding soft-deleted drafts
func (r *DraftRepository) Get(id string) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id), id)
}

// Active retrieves the active draft or [shared.ErrDraftNotFound] when there is none.
func (r *DraftRepository) Active() (*models.Draft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM drafts
		WHERE active = 1 AND deleted_at IS NULL
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(query), "active")
}

// Update stores the draft's playlist name and entries.
func (r *DraftRepository) Update(draft *models.Draft) error {
	entries, err := encodeEntries(draft.Playlist.Entries)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `
		UPDATE drafts
		SET name = ?, entries = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, draft.Playlist.Name, entries, now, draft.ID)
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	if err := expectRow(result, draft.ID); err != nil {
		return err
	}

	draft.UpdatedAt = now
	return nil
}

// SaveActive stores p as the active draft, creating one if none is active.
func (r *DraftRepository) SaveActive(p models.Playlist) (*models.Draft, error) {
	draft, err := r.Active()
	switch {
	case errors.Is(err, shared.ErrDraftNotFound):
		draft = &models.Draft{Playlist: p, Active: true}
		if err := r.Create(draft); err != nil {
			return nil, err
		}
		return draft, nil
	case err != nil:
		return nil, err
	}

	draft.Playlist = p
	if err := r.Update(draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Activate makes id the only active draft.
func (r *DraftRepository) Activate(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE drafts SET active = 0 WHERE active = 1`); err != nil {
		return fmt.Errorf("failed to deactivate drafts: %w", err)
	}

	result, err := tx.Exec(`UPDATE drafts SET active = 1 WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to activate draft: %w", err)
	}
	if err := expectRow(result, id); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete soft-deletes a draft by ID
func (r *DraftRepository) Delete(id string) error {
	query := `
		UPDATE drafts
		SET deleted_at = ?, active = 0
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return expectRow(result, id)
}

// List retrieves all drafts in creation order, excluding soft-deleted drafts
func (r *DraftRepository) List() ([]*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE deleted_at IS NULL ORDER BY sequence ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return drafts, nil
}

func (r *DraftRepository) scanOne(row *sql.Row, id string) (*models.Draft, error) {
	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrDraftNotFound, id)
	}
	return draft, err
}

func scanDraft(row scanner) (*models.Draft, error) {
	var (
		draft   models.Draft
		entries string
	)

	err := row.Scan(&draft.ID, &draft.Sequence, &draft.Playlist.Name, &entries, &draft.Active, &draft.CreatedAt, &draft.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan draft: %w", err)
	}

	if err := json.Unmarshal([]byte(entries), &draft.Playlist.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode draft entries: %w", err)
	}
	if draft.Playlist.Entries == nil {
		draft.Playlist.Entries = []models.TrackEntry{}
	}

	return &draft, nil
}

func encodeEntries(entries []models.TrackEntry) (string, error) {
	if entries == nil {
		entries = []models.TrackEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to encode draft entries: %w", err)
	}
	return string(b), nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrDraftNotFound, id)
	}
	return nil
}
