package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/principal"
)

// PrincipalRepository is the sqlx-backed principal profile store.
type PrincipalRepository struct {
	db *sqlx.DB
}

var _ principal.Repository = (*PrincipalRepository)(nil) // interface compliance check

func NewPrincipalRepository(db *sql.DB, driverName string) *PrincipalRepository {
	return &PrincipalRepository{db: sqlx.NewDb(db, driverName)}
}

type principalRow struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	Profile      types.JSONText `db:"profile"`
	IsActive     sql.NullBool   `db:"is_active"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (row principalRow) principal() (principal.Principal, error) {
	prin := principal.Principal{
		ID:           row.ID,
		Email:        row.Email,
		Profile:      principal.Profile{},
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.IsActive.Valid {
		prin.IsActive = &row.IsActive.Bool
	}
	if row.LastLogin.Valid {
		prin.LastLogin = row.LastLogin.Time
	}
	if len(row.Profile) > 0 {
		if err := json.Unmarshal(row.Profile, &prin.Profile); err != nil {
			return principal.Principal{}, errors.Wrap(err, "decoding profile")
		}
	}
	return prin, nil
}

// trapNoRowsErr maps psql "no rows" err to principal.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return principal.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const principalColumns = `id, email, profile, is_active, password_hash, created_at, updated_at, last_login`

func (repo *PrincipalRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM principal_profile WHERE lower(email) = lower($1))`, email)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return principal.ErrEmailExists
	}
	return nil
}

func (repo *PrincipalRepository) CreatePrincipal(ctx context.Context, prin principal.Principal) (principal.Principal, error) {
	profile, err := json.Marshal(prin.Profile)
	if err != nil {
		return principal.Principal{}, errors.Wrap(err, "encoding profile")
	}

	var row principalRow
	err = repo.db.GetContext(ctx, &row,
		`INSERT INTO principal_profile (id, email, profile, is_active, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+principalColumns,
		prin.ID, prin.Email, types.JSONText(profile), prin.IsActive, prin.PasswordHash,
		prin.CreatedAt.UTC(), prin.UpdatedAt.UTC())
	if err != nil {
		return principal.Principal{}, errors.Wrap(err, "inserting principal")
	}
	return row.principal()
}

func (repo *PrincipalRepository) GetPrincipalByID(ctx context.Context, id string) (principal.Principal, error) {
	var row principalRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+principalColumns+` FROM principal_profile WHERE id = $1`, id)
	if err != nil {
		return principal.Principal{}, trapNoRowsErr(err, "getting principal by id")
	}
	return row.principal()
}

func (repo *PrincipalRepository) GetPrincipalByEmail(ctx context.Context, email string) (principal.Principal, error) {
	var row principalRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+principalColumns+` FROM principal_profile WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return principal.Principal{}, trapNoRowsErr(err, "getting principal by email")
	}
	return row.principal()
}

// PatchProfile merge-updates the jsonb profile map in a single statement;
// provided fields overwrite, unrelated keys survive. Concurrent patches
// are last-write-wins per key, which the gate accepts.
func (repo *PrincipalRepository) PatchProfile(ctx context.Context, id string, fields map[string]string) (principal.Principal, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return principal.Principal{}, errors.Wrap(err, "encoding profile patch")
	}

	var row principalRow
	err = repo.db.GetContext(ctx, &row,
		`UPDATE principal_profile
		 SET profile = profile || $2::jsonb, updated_at = now()
		 WHERE id = $1
		 RETURNING `+principalColumns,
		id, types.JSONText(patch))
	if err != nil {
		return principal.Principal{}, trapNoRowsErr(err, "patching profile")
	}
	return row.principal()
}

func (repo *PrincipalRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE principal_profile SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, hash)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.ErrNotFound
	}
	return nil
}

func (repo *PrincipalRepository) SetLastLogin(ctx context.Context, prin principal.Principal) (principal.Principal, error) {
	var row principalRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE principal_profile SET last_login = now() WHERE id = $1 RETURNING `+principalColumns,
		prin.ID)
	if err != nil {
		return principal.Principal{}, trapNoRowsErr(err, "setting last login")
	}
	return row.principal()
}
