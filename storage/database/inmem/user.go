package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/shuleapp/shule/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// findByEmail must be called with the lock held.
func (repo *userRepository) findByEmail(email string) (*user.User, bool) {
	for _, usr := range repo.db.table {
		if strings.EqualFold(usr.Email, email) {
			return usr, true
		}
	}
	return nil, false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, exists := repo.findByEmail(usr.Email); exists {
		return user.User{}, user.ErrEmailExists
	}
	usr.ID = uuid.NewString()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.findByEmail(email); ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	updated := *orig
	updated.FullName = usr.FullName
	updated.PasswordHash = usr.PasswordHash
	updated.Phone = usr.Phone
	updated.AvatarURL = usr.AvatarURL
	updated.UpdatedAt = usr.UpdatedAt
	repo.db.table[usr.ID] = &updated
	return updated, nil
}

func (repo *userRepository) CountUsersByRole(_ context.Context) (map[user.Role]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[user.Role]int, len(user.AllRoles))
	for _, usr := range repo.db.table {
		counts[usr.Role]++
	}
	return counts, nil
}

// DeleteUser removes a user. It exists for tests and maintenance scripts.
func DeleteUser(db *DB, id string) {
	db.user.Lock()
	defer db.user.Unlock()
	delete(db.user.table, id)
}
