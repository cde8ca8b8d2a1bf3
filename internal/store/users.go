package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"padws/internal/oidc"
	"padws/pkg/logging"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jackc/pgx/v5/pgconn"
)

// userIDNamespace is the UUIDv5 namespace for deriving user IDs from
// OIDC subjects. Some providers don't issue UUID subs, so the subject
// is mapped deterministically instead of being used directly.
var userIDNamespace = uuid.MustParse("9a2c3e58-7b1f-4c44-9a1e-5b86e10c8f6d")

// UserIDFromSubject maps an OIDC subject to a stable user ID.
func UserIDFromSubject(sub string) uuid.UUID {
	return uuid.NewSHA1(userIDNamespace, []byte(sub))
}

// User is a padws account, sourced from verified OIDC claims.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	EmailVerified   bool       `json:"email_verified"`
	Name            *string    `json:"name"`
	GivenName       *string    `json:"given_name"`
	FamilyName      *string    `json:"family_name"`
	Roles           []string   `json:"roles"`
	OpenPads        []uuid.UUID `json:"open_pads"`
	LastSelectedPad *uuid.UUID `json:"last_selected_pad"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Users is the user repository.
type Users struct {
	db DB
}

const userColumns = `id, username, email, email_verified, name, given_name, family_name,
	roles, open_pads, last_selected_pad, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.EmailVerified, &u.Name,
		&u.GivenName, &u.FamilyName, &u.Roles, &u.OpenPads, &u.LastSelectedPad,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user, returning a NotFoundError when absent.
func (r *Users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NewNotFoundError("user", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", id, err)
	}
	return u, nil
}

// EnsureExists creates the user row for the given claims if it does
// not exist yet, and returns it. Concurrent logins racing on the
// insert are tolerated: the conflict is ignored and the winner's row
// is returned.
func (r *Users) EnsureExists(ctx context.Context, claims *oidc.Claims) (*User, error) {
	id := UserIDFromSubject(claims.Subject)

	tag, err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, email, email_verified, name, given_name, family_name, roles)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
		 ON CONFLICT (id) DO NOTHING`,
		id, claims.PreferredUsername, claims.Email, claims.EmailVerified,
		claims.Name, claims.GivenName, claims.FamilyName, claims.Roles())
	if err != nil {
		var pgErr *pgconn.PgError
		// Unique violations can still surface through racing transactions.
		if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
			return nil, fmt.Errorf("creating user: %w", err)
		}
	}
	if tag.RowsAffected() > 0 {
		logging.Info("Store", "Created user id=%s username=%s", id, claims.PreferredUsername)
	}

	return r.GetByID(ctx, id)
}

// SetLastSelectedPad records the pad the user last had focused.
func (r *Users) SetLastSelectedPad(ctx context.Context, userID uuid.UUID, padID *uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET last_selected_pad = $2, updated_at = now() WHERE id = $1`,
		userID, padID)
	if err != nil {
		return fmt.Errorf("setting last selected pad: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NewNotFoundError("user", userID.String())
	}
	return nil
}

// AddOpenPad appends a pad to the user's open list if not present.
func (r *Users) AddOpenPad(ctx context.Context, userID, padID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET open_pads = array_append(open_pads, $2), updated_at = now()
		 WHERE id = $1 AND NOT ($2 = ANY(open_pads))`,
		userID, padID)
	if err != nil {
		return fmt.Errorf("adding open pad: %w", err)
	}
	return nil
}

// RemoveOpenPad removes a pad from the user's open list.
func (r *Users) RemoveOpenPad(ctx context.Context, userID, padID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET open_pads = array_remove(open_pads, $2), updated_at = now()
		 WHERE id = $1`,
		userID, padID)
	if err != nil {
		return fmt.Errorf("removing open pad: %w", err)
	}
	return nil
}

// OpenPads lists metadata (no canvas data) for the user's open pads,
// preserving the open order.
func (r *Users) OpenPads(ctx context.Context, userID uuid.UUID) ([]PadMeta, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.owner_id, p.display_name, p.sharing_policy, p.created_at, p.updated_at
		 FROM users u
		 JOIN unnest(u.open_pads) WITH ORDINALITY AS o(pad_id, ord) ON TRUE
		 JOIN pads p ON p.id = o.pad_id
		 WHERE u.id = $1
		 ORDER BY o.ord`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing open pads: %w", err)
	}
	defer rows.Close()
	return collectPadMeta(rows)
}
