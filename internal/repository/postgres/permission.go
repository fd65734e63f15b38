package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crudkit/identity/internal/domain"
	apperrors "github.com/crudkit/identity/pkg/errors"
)

// PermissionRepository implements repository.PermissionRepository using PostgreSQL.
type PermissionRepository struct {
	db DB
}

// NewPermissionRepository creates a new PostgreSQL-backed permission repository.
func NewPermissionRepository(db DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Create inserts a new permission and fills in the generated ID and timestamps.
func (r *PermissionRepository) Create(ctx context.Context, p *domain.Permission) error {
	query := `
		INSERT INTO permissions (name, description)
		VALUES ($1, $2)
		RETURNING id, is_active, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, p.Name, p.Description).
		Scan(&p.ID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("permission", "name", p.Name)
		}
		return fmt.Errorf("insert permission: %w", err)
	}

	return nil
}

// CreateBatch inserts several permissions inside one transaction. A single
// duplicate name fails the whole batch.
func (r *PermissionRepository) CreateBatch(ctx context.Context, perms []*domain.Permission) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO permissions (name, description)
		VALUES ($1, $2)
		RETURNING id, is_active, created_at, updated_at`

	for _, p := range perms {
		err := tx.QueryRow(ctx, query, p.Name, p.Description).
			Scan(&p.ID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.AlreadyExists("permission", "name", p.Name)
			}
			return fmt.Errorf("insert permission %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a permission by its ID.
func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*domain.Permission, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM permissions
		WHERE id = $1`

	var p domain.Permission
	err := r.db.QueryRow(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan permission: %w", err)
	}

	return &p, nil
}

// List returns all permissions ordered by name.
func (r *PermissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM permissions
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	perms := []domain.Permission{}
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan permission row: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permission rows: %w", err)
	}

	return perms, nil
}

// Update modifies a permission's name, description, and active flag.
func (r *PermissionRepository) Update(ctx context.Context, p *domain.Permission) error {
	query := `
		UPDATE permissions
		SET name = $1, description = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, p.Name, p.Description, p.IsActive, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("permission", "name", p.Name)
		}
		return fmt.Errorf("update permission: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("permission", p.ID)
	}

	return nil
}

// Delete removes a permission along with its role assignments, which cascade
// at the database level.
func (r *PermissionRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM permissions WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("permission", id)
	}

	return nil
}
