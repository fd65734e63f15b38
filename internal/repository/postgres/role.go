package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/crudkit/identity/internal/domain"
	apperrors "github.com/crudkit/identity/pkg/errors"
)

// RoleRepository implements repository.RoleRepository using PostgreSQL.
type RoleRepository struct {
	db DB
}

// NewRoleRepository creates a new PostgreSQL-backed role repository.
func NewRoleRepository(db DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts a new role and fills in the generated ID and timestamps.
func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	query := `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		RETURNING id, is_active, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, role.Name, role.Description).
		Scan(&role.ID, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("role", "name", role.Name)
		}
		return fmt.Errorf("insert role: %w", err)
	}

	return nil
}

// GetByID retrieves a role by its ID.
func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles
		WHERE id = $1`

	return r.scanRole(ctx, query, id)
}

// GetByName retrieves a role by its unique name.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles
		WHERE name = $1`

	return r.scanRole(ctx, query, name)
}

// List returns all roles ordered by name.
func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan role row: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role rows: %w", err)
	}

	return roles, nil
}

// Update modifies a role's name, description, and active flag.
func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	query := `
		UPDATE roles
		SET name = $1, description = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, role.Name, role.Description, role.IsActive, role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("role", "name", role.Name)
		}
		return fmt.Errorf("update role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("role", role.ID)
	}

	return nil
}

// Delete removes a role. Roles with users still assigned fail the users
// foreign key and surface as an invalid-input error.
func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM roles WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.InvalidInput("role is still assigned to users")
		}
		return fmt.Errorf("delete role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("role", id)
	}

	return nil
}

// ReplacePermissions atomically replaces the role's permission set inside a
// transaction: existing assignments are deleted, then the new set inserted.
func (r *RoleRepository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}

	for _, permID := range permissionIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
			roleID, permID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperrors.NotFound("permission", permID)
			}
			return fmt.Errorf("insert role permission: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListPermissions returns the role's permissions ordered by name.
func (r *RoleRepository) ListPermissions(ctx context.Context, roleID int64) ([]domain.Permission, error) {
	query := `
		SELECT p.id, p.name, p.description, p.is_active, p.created_at, p.updated_at
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`

	rows, err := r.db.Query(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
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

// HasPermission reports whether the role holds the named permission. An
// inactive role or inactive permission never matches.
func (r *RoleRepository) HasPermission(ctx context.Context, roleID int64, permission string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM role_permissions rp
			JOIN roles ro ON ro.id = rp.role_id AND ro.is_active
			JOIN permissions p ON p.id = rp.permission_id AND p.is_active
			WHERE rp.role_id = $1 AND p.name = $2
		)`

	var held bool
	if err := r.db.QueryRow(ctx, query, roleID, permission).Scan(&held); err != nil {
		return false, fmt.Errorf("check role permission: %w", err)
	}
	return held, nil
}

func (r *RoleRepository) scanRole(ctx context.Context, query string, args ...any) (*domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRow(ctx, query, args...).
		Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	return &role, nil
}

// isForeignKeyViolation checks if the error is a PostgreSQL foreign key violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}
