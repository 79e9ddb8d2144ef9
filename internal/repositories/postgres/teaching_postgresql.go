package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
)

type TeachingPostgreSQL struct {
	db *gorm.DB
}

func NewTeachingPostgreSQL(db *gorm.DB) repositories.TeachingRepository {
	return &TeachingPostgreSQL{db: db}
}

func (t *TeachingPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

// Attach links a teacher to a module. The composite primary key rejects
// a duplicate assignment.
func (t *TeachingPostgreSQL) Attach(ctx context.Context, tx *gorm.DB, assignment *models.TeachingAssignment) error {
	if err := t.getDB(tx).WithContext(ctx).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to attach teacher to module: %w", err)
	}
	return nil
}

// Detach removes a teacher-module link
func (t *TeachingPostgreSQL) Detach(ctx context.Context, tx *gorm.DB, teacherID string, moduleID uint) error {
	result := t.getDB(tx).WithContext(ctx).
		Where("teacher_id = ? AND module_id = ?", teacherID, moduleID).
		Delete(&models.TeachingAssignment{})
	if result.Error != nil {
		return fmt.Errorf("failed to detach teacher from module: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Exists checks whether the teacher is assigned to the module
func (t *TeachingPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, teacherID string, moduleID uint) (bool, error) {
	var count int64
	err := t.getDB(tx).WithContext(ctx).
		Model(&models.TeachingAssignment{}).
		Where("teacher_id = ? AND module_id = ?", teacherID, moduleID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check teaching assignment: %w", err)
	}
	return count > 0, nil
}

// ListModules returns the modules a teacher is assigned to
func (t *TeachingPostgreSQL) ListModules(ctx context.Context, tx *gorm.DB, teacherID string) ([]*models.Module, error) {
	var modules []*models.Module
	err := t.getDB(tx).WithContext(ctx).
		Model(&models.Module{}).
		Joins("JOIN module_teacher ON module_teacher.module_id = modules.id").
		Where("module_teacher.teacher_id = ?", teacherID).
		Order("modules.title ASC").
		Find(&modules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list teaching modules: %w", err)
	}

	for _, module := range modules {
		var count int64
		err := t.getDB(tx).WithContext(ctx).
			Model(&models.Enrollment{}).
			Where("module_id = ? AND status IS NULL", module.ID).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count enrollments: %w", err)
		}
		module.EnrolledCount = int(count)
	}

	return modules, nil
}

// ListTeachers returns the teachers assigned to a module
func (t *TeachingPostgreSQL) ListTeachers(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.User, error) {
	var teachers []*models.User
	err := t.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN module_teacher ON module_teacher.teacher_id = users.id").
		Where("module_teacher.module_id = ?", moduleID).
		Order("users.full_name ASC").
		Find(&teachers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list module teachers: %w", err)
	}
	return teachers, nil
}
