package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AcademiaHub/module-service/internal/cache"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}

// Create inserts a new user
func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := u.getDB(tx).WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, u.cacheManager.Stats, "*")
	return nil
}

// GetByID retrieves a user with role preloaded, cached. The auth
// middleware hits this on every request.
func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var user models.User

	err := u.cacheManager.User.CacheOrExecute(ctx, cacheKey, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		err := u.getDB(tx).WithContext(ctx).
			Preload("Role").
			Where("id = ?", id).
			First(&dbUser).Error
		if err != nil {
			return nil, err
		}
		return &dbUser, nil
	})

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByIDForUpdate reads the user row under FOR UPDATE, skipping the
// cache entirely so the lock is taken inside the caller's transaction.
func (u *UserPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := u.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email with role preloaded
func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := u.getDB(tx).WithContext(ctx).
		Preload("Role").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates profile fields and invalidates the user cache
func (u *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	result := u.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"full_name":      user.FullName,
			"email":          user.Email,
			"is_old_student": user.IsOldStudent,
			"updated_at":     user.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, user.ID)

	return nil
}

// Delete hard deletes a user. Enrollments, teaching assignments and chat
// history go with it through ON DELETE CASCADE.
func (u *UserPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := u.getDB(tx).WithContext(ctx).Unscoped().
		Where("id = ?", id).
		Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, id)
	cache.SafeInvalidatePattern(ctx, u.cacheManager.Module, "list:*")

	return nil
}

// List retrieves users with filters and pagination
func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := u.getDB(tx).WithContext(ctx).Model(&models.User{})

	if filters.Role != nil {
		query = query.Joins("JOIN user_roles ON user_roles.id = users.role_id").
			Where("user_roles.name = ?", *filters.Role)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("users.full_name ILIKE ? OR users.email ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = query.Preload("Role").Order("users.created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// EnsureRole returns the role row with the given name, creating it on
// first use so the roles table never needs seeding.
func (u *UserPostgreSQL) EnsureRole(ctx context.Context, tx *gorm.DB, name models.RoleName) (*models.UserRole, error) {
	var role models.UserRole
	err := u.getDB(tx).WithContext(ctx).
		Where(models.UserRole{Name: name}).
		FirstOrCreate(&role).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure role %q: %w", name, err)
	}
	return &role, nil
}

// SetRole points the user at a new role row (or clears it with nil)
func (u *UserPostgreSQL) SetRole(ctx context.Context, tx *gorm.DB, userID string, roleID *uint) error {
	result := u.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("role_id", roleID)
	if result.Error != nil {
		return fmt.Errorf("failed to set user role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, userID)

	return nil
}

// ExistsByEmail checks whether an email is already registered
func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	err := u.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}
