package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SharingPolicy controls who can read a pad besides its owner.
type SharingPolicy string

const (
	// SharingPrivate restricts access to the owner.
	SharingPrivate SharingPolicy = "private"
	// SharingWhitelist extends access to the whitelisted users.
	SharingWhitelist SharingPolicy = "whitelist"
	// SharingPublic allows any authenticated user to read the pad.
	SharingPublic SharingPolicy = "public"
)

// Valid reports whether the policy is one of the known values.
func (p SharingPolicy) Valid() bool {
	switch p {
	case SharingPrivate, SharingWhitelist, SharingPublic:
		return true
	}
	return false
}

// Pad is a whiteboard canvas: opaque JSON data plus ownership and
// sharing metadata.
type Pad struct {
	ID               uuid.UUID       `json:"id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	DisplayName      string          `json:"display_name"`
	Data             json.RawMessage `json:"data"`
	SharingPolicy    SharingPolicy   `json:"sharing_policy"`
	WhitelistedUsers []uuid.UUID     `json:"whitelisted_users"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CanAccess reports whether the user may read this pad. The owner
// always passes.
func (p *Pad) CanAccess(userID uuid.UUID) bool {
	if p.OwnerID == userID {
		return true
	}
	switch p.SharingPolicy {
	case SharingPublic:
		return true
	case SharingWhitelist:
		for _, id := range p.WhitelistedUsers {
			if id == userID {
				return true
			}
		}
	}
	return false
}

// PadMeta is pad metadata without the canvas payload, for listings.
type PadMeta struct {
	ID            uuid.UUID     `json:"id"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	DisplayName   string        `json:"display_name"`
	SharingPolicy SharingPolicy `json:"sharing_policy"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func collectPadMeta(rows pgx.Rows) ([]PadMeta, error) {
	metas := []PadMeta{}
	for rows.Next() {
		var m PadMeta
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.DisplayName, &m.SharingPolicy,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// Pads is the pad repository.
type Pads struct {
	db DB
}

const padColumns = `id, owner_id, display_name, data, sharing_policy, whitelisted_users, created_at, updated_at`

func scanPad(row pgx.Row) (*Pad, error) {
	var p Pad
	err := row.Scan(&p.ID, &p.OwnerID, &p.DisplayName, &p.Data, &p.SharingPolicy,
		&p.WhitelistedUsers, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new pad owned by ownerID. Empty data creates a
// blank canvas.
func (r *Pads) Create(ctx context.Context, ownerID uuid.UUID, displayName string, data json.RawMessage) (*Pad, error) {
	if displayName == "" {
		displayName = "Untitled"
	}
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}

	id := uuid.New()
	p, err := scanPad(r.db.QueryRow(ctx,
		`INSERT INTO pads (id, owner_id, display_name, data)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+padColumns,
		id, ownerID, displayName, data))
	if err != nil {
		return nil, fmt.Errorf("creating pad: %w", err)
	}
	return p, nil
}

// GetByID fetches a pad including its canvas data.
func (r *Pads) GetByID(ctx context.Context, id uuid.UUID) (*Pad, error) {
	p, err := scanPad(r.db.QueryRow(ctx,
		`SELECT `+padColumns+` FROM pads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NewNotFoundError("pad", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("loading pad %s: %w", id, err)
	}
	return p, nil
}

// ListByOwner returns metadata for pads owned by the user, newest
// first.
func (r *Pads) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]PadMeta, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, display_name, sharing_policy, created_at, updated_at
		 FROM pads WHERE owner_id = $1 ORDER BY updated_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing pads: %w", err)
	}
	defer rows.Close()
	return collectPadMeta(rows)
}

// UpdateData replaces the canvas payload.
func (r *Pads) UpdateData(ctx context.Context, id uuid.UUID, data json.RawMessage) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE pads SET data = $2, updated_at = now() WHERE id = $1`, id, data)
	if err != nil {
		return fmt.Errorf("updating pad data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NewNotFoundError("pad", id.String())
	}
	return nil
}

// Rename changes the display name.
func (r *Pads) Rename(ctx context.Context, id uuid.UUID, displayName string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE pads SET display_name = $2, updated_at = now() WHERE id = $1`, id, displayName)
	if err != nil {
		return fmt.Errorf("renaming pad: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NewNotFoundError("pad", id.String())
	}
	return nil
}

// SetSharingPolicy updates the sharing policy and whitelist.
func (r *Pads) SetSharingPolicy(ctx context.Context, id uuid.UUID, policy SharingPolicy, whitelist []uuid.UUID) error {
	if !policy.Valid() {
		return fmt.Errorf("invalid sharing policy %q", policy)
	}
	if whitelist == nil {
		whitelist = []uuid.UUID{}
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE pads SET sharing_policy = $2, whitelisted_users = $3, updated_at = now() WHERE id = $1`,
		id, policy, whitelist)
	if err != nil {
		return fmt.Errorf("updating sharing policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NewNotFoundError("pad", id.String())
	}
	return nil
}

// Delete removes a pad and detaches it from any user's open list and
// last selection.
func (r *Pads) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE users SET last_selected_pad = NULL WHERE last_selected_pad = $1`, id); err != nil {
		return fmt.Errorf("clearing last selected pad: %w", err)
	}
	if _, err := r.db.Exec(ctx,
		`UPDATE users SET open_pads = array_remove(open_pads, $1) WHERE $1 = ANY(open_pads)`, id); err != nil {
		return fmt.Errorf("clearing open pads: %w", err)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM pads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting pad: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NewNotFoundError("pad", id.String())
	}
	return nil
}
