package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AcademiaHub/module-service/internal/models"
)

// BusinessValidator handles domain rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates domain rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateModuleCreate validates module creation rules
func (bv *BusinessValidator) ValidateModuleCreate(req *ModuleCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateModuleUpdate validates module update rules
func (bv *BusinessValidator) ValidateModuleUpdate(req *ModuleUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Title == nil && req.Code == nil && req.Description == nil && req.Capacity == nil {
		errors = append(errors, ValidationError{
			Field:   "request",
			Message: "at least one field must be provided",
			Rule:    "business_logic",
		})
	}

	return errors
}

// registerBusinessRules registers custom domain rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (1-255 characters, not only whitespace)
	bv.validate.RegisterValidation("module_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 255
	})

	// Code validation (max 50 characters)
	bv.validate.RegisterValidation("module_code", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		return len(code) <= 50
	})

	// Capacity validation (at least one seat)
	bv.validate.RegisterValidation("module_capacity", func(fl validator.FieldLevel) bool {
		capacity := fl.Field().Int()
		return capacity >= 1
	})

	// Grade status validation (terminal states only)
	bv.validate.RegisterValidation("grade_status", func(fl validator.FieldLevel) bool {
		status := models.EnrollmentStatus(fl.Field().String())
		return status == models.EnrollmentPass || status == models.EnrollmentFail
	})

	// Role name validation
	bv.validate.RegisterValidation("role_name", func(fl validator.FieldLevel) bool {
		role := models.RoleName(fl.Field().String())
		validRoles := []models.RoleName{models.RoleAdmin, models.RoleTeacher, models.RoleStudent, models.RoleSuperAdmin}
		for _, vr := range validRoles {
			if role == vr {
				return true
			}
		}
		return false
	})
}
