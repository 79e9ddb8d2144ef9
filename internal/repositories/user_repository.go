package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Role   *models.RoleName // Filter by role name
	Query  string           // Search query for name or email
	Limit  int              // Page size
	Offset int              // Offset for pagination
}

// UserRepository interface for user operations
type UserRepository interface {
	// Basic CRUD
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	// GetByIDForUpdate reads the user row with a FOR UPDATE lock, always
	// straight from the database. Callers use it to serialize concurrent
	// writes that hang off one user, such as the enrollment cap check.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	// Role operations. EnsureRole creates the role row on first use.
	EnsureRole(ctx context.Context, tx *gorm.DB, name models.RoleName) (*models.UserRole, error)
	SetRole(ctx context.Context, tx *gorm.DB, userID string, roleID *uint) error

	// Validation and checks
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)
}
