package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core/user"
)

const userColumns = "id, email, password_hash, full_name, role, phone, avatar_url, created_at, updated_at"

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	q := `INSERT INTO profiles (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Email, usr.PasswordHash, usr.FullName, string(usr.Role), usr.Phone, usr.AvatarURL, usr.CreatedAt, usr.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) get(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var usr user.User
	q := `SELECT ` + userColumns + ` FROM profiles WHERE ` + where
	if err := repo.db.GetContext(ctx, &usr, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.get(ctx, "id = $1", id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.get(ctx, "LOWER(email) = LOWER($1)", email)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE profiles SET full_name = $2, password_hash = $3, phone = $4, avatar_url = $5, updated_at = $6
		WHERE id = $1 RETURNING ` + userColumns
	var updated user.User
	err := repo.db.GetContext(ctx, &updated, q, usr.ID, usr.FullName, usr.PasswordHash, usr.Phone, usr.AvatarURL, usr.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return updated, nil
}

func (repo *userRepository) CountUsersByRole(ctx context.Context) (map[user.Role]int, error) {
	var rows []struct {
		Role  user.Role `db:"role"`
		Count int       `db:"count"`
	}
	if err := repo.db.SelectContext(ctx, &rows, `SELECT role, COUNT(*) AS count FROM profiles GROUP BY role`); err != nil {
		return nil, errors.Wrap(err, "counting users")
	}
	counts := make(map[user.Role]int, len(rows))
	for _, r := range rows {
		counts[r.Role] = r.Count
	}
	return counts, nil
}
