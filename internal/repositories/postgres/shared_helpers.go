package postgres

import (
	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/repositories"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyModuleFilters applies common filters to module queries
func (h *SharedHelpers) ApplyModuleFilters(query *gorm.DB, filters repositories.ModuleFilters) *gorm.DB {
	if filters.Available != nil {
		query = query.Where("modules.available = ?", *filters.Available)
	}
	if filters.TeacherID != nil {
		query = query.Joins("JOIN module_teacher ON module_teacher.module_id = modules.id").
			Where("module_teacher.teacher_id = ?", *filters.TeacherID)
	}
	if filters.Search != nil && *filters.Search != "" {
		like := "%" + *filters.Search + "%"
		query = query.Where("modules.title ILIKE ? OR modules.code ILIKE ?", like, like)
	}
	return query
}

// ApplyEnrollmentFilters applies common filters to enrollment queries
func (h *SharedHelpers) ApplyEnrollmentFilters(query *gorm.DB, filters repositories.EnrollmentFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("module_student.status = ?", *filters.Status)
	}
	if filters.Active != nil {
		if *filters.Active {
			query = query.Where("module_student.status IS NULL")
		} else {
			query = query.Where("module_student.status IS NOT NULL")
		}
	}
	if filters.StudentID != nil {
		query = query.Where("module_student.student_id = ?", *filters.StudentID)
	}
	if filters.ModuleID != nil {
		query = query.Where("module_student.module_id = ?", *filters.ModuleID)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
		"code":       true,
		"capacity":   true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
