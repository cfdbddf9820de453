package repository

import (
	"time"

	"gorm.io/gorm"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByEmail(email string) (*model.User, error)
	FindByID(id uint) (*model.User, error)
	FindAll() ([]model.User, error)
	FindByRole(role model.Role) ([]model.User, error)
	SetActive(id uint, active bool, updatedBy string) error
	UpdatePassword(id uint, hashedPassword string) error
	UpdateSession(id uint, tokenVersion string, seenAt time.Time) error
	UpdateLastSeen(id uint) error
	CountActiveByRole() (map[model.Role]int64, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) Create(user *model.User) error {
	var count int64
	if err := r.db.Model(&model.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return storageErr(err)
	}
	if count > 0 {
		return marketerrors.ErrDuplicateEmail
	}
	if err := r.db.Create(user).Error; err != nil {
		// lost a race against a concurrent registration
		if isUniqueViolation(err) {
			return marketerrors.ErrDuplicateEmail
		}
		return storageErr(err)
	}
	return nil
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, lookupErr(err, marketerrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, lookupErr(err, marketerrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepo) FindAll() ([]model.User, error) {
	var users []model.User
	if err := r.db.Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, storageErr(err)
	}
	return users, nil
}

func (r *userRepo) FindByRole(role model.Role) ([]model.User, error) {
	var users []model.User
	if err := r.db.Where("role = ?", role).Order("name ASC").Find(&users).Error; err != nil {
		return nil, storageErr(err)
	}
	return users, nil
}

func (r *userRepo) SetActive(id uint, active bool, updatedBy string) error {
	res := r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"is_active":  active,
		"updated_by": updatedBy,
	})
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return marketerrors.ErrUserNotFound
	}
	return nil
}

func (r *userRepo) UpdatePassword(id uint, hashedPassword string) error {
	return storageErr(r.db.Model(&model.User{}).Where("id = ?", id).Update("password", hashedPassword).Error)
}

func (r *userRepo) UpdateSession(id uint, tokenVersion string, seenAt time.Time) error {
	return storageErr(r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"token_version": tokenVersion,
		"last_seen_at":  seenAt,
	}).Error)
}

func (r *userRepo) UpdateLastSeen(id uint) error {
	return storageErr(r.db.Model(&model.User{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error)
}

func (r *userRepo) CountActiveByRole() (map[model.Role]int64, error) {
	var rows []struct {
		Role  model.Role
		Count int64
	}
	err := r.db.Model(&model.User{}).
		Select("role, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr(err)
	}

	counts := make(map[model.Role]int64, len(model.AllRoles))
	for _, role := range model.AllRoles {
		counts[role] = 0
	}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}
