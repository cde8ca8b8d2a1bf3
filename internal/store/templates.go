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

// TemplatePad is a named starting-point canvas. New pads can be
// seeded from a template's data.
type TemplatePad struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TemplatePads is the template repository.
type TemplatePads struct {
	db DB
}

const templateColumns = `id, name, display_name, data, created_at, updated_at`

func scanTemplate(row pgx.Row) (*TemplatePad, error) {
	var t TemplatePad
	err := row.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Data, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByName fetches a template by its unique name.
func (r *TemplatePads) GetByName(ctx context.Context, name string) (*TemplatePad, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM template_pads WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NewNotFoundError("template", name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", name, err)
	}
	return t, nil
}

// List returns all templates ordered by name. Canvas data is included;
// templates are few and small.
func (r *TemplatePads) List(ctx context.Context) ([]TemplatePad, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+templateColumns+` FROM template_pads ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	templates := []TemplatePad{}
	for rows.Next() {
		var t TemplatePad
		if err := rows.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Data, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Create inserts a new template. The name must be unique.
func (r *TemplatePads) Create(ctx context.Context, name, displayName string, data json.RawMessage) (*TemplatePad, error) {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	t, err := scanTemplate(r.db.QueryRow(ctx,
		`INSERT INTO template_pads (id, name, display_name, data)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+templateColumns,
		uuid.New(), name, displayName, data))
	if err != nil {
		return nil, fmt.Errorf("creating template %s: %w", name, err)
	}
	return t, nil
}

// Upsert creates the template or refreshes its display name and data
// when it already exists. Used by the template directory sync.
func (r *TemplatePads) Upsert(ctx context.Context, name, displayName string, data json.RawMessage) (*TemplatePad, error) {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	t, err := scanTemplate(r.db.QueryRow(ctx,
		`INSERT INTO template_pads (id, name, display_name, data)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE
		 SET display_name = EXCLUDED.display_name, data = EXCLUDED.data, updated_at = now()
		 RETURNING `+templateColumns,
		uuid.New(), name, displayName, data))
	if err != nil {
		return nil, fmt.Errorf("upserting template %s: %w", name, err)
	}
	return t, nil
}
