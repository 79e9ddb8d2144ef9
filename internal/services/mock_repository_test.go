package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
)

// MockRepository is an in-memory Repository implementation for service
// tests. The tx parameter is ignored: transactions run against the same
// maps.
type MockRepository struct {
	users       map[string]*models.User
	roles       map[models.RoleName]*models.UserRole
	modules     map[uint]*models.Module
	enrollments map[string]*models.Enrollment
	teaching    map[string]*models.TeachingAssignment
	chats       []*models.ChatMessage

	// lockedUsers records every row-locked user read, oldest first.
	lockedUsers []string

	nextModuleID uint
	nextRoleID   uint
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		users:        make(map[string]*models.User),
		roles:        make(map[models.RoleName]*models.UserRole),
		modules:      make(map[uint]*models.Module),
		enrollments:  make(map[string]*models.Enrollment),
		teaching:     make(map[string]*models.TeachingAssignment),
		nextModuleID: 1,
		nextRoleID:   1,
	}
}

func enrollmentKey(studentID string, moduleID uint) string {
	return fmt.Sprintf("%s/%d", studentID, moduleID)
}

// ===== test fixtures =====

func (m *MockRepository) AddUser(id string, role models.RoleName, oldStudent bool) *models.User {
	user := &models.User{
		ID:           id,
		FullName:     "User " + id,
		Email:        id + "@example.com",
		IsOldStudent: oldStudent,
		CreatedAt:    time.Now(),
	}
	if role != "" {
		roleRow := m.ensureRole(role)
		user.RoleID = &roleRow.ID
		user.Role = roleRow
	}
	m.users[id] = user
	return user
}

func (m *MockRepository) AddModule(title string, capacity int, available bool) *models.Module {
	module := &models.Module{
		ID:        m.nextModuleID,
		Title:     title,
		Capacity:  capacity,
		Available: available,
		CreatedAt: time.Now(),
	}
	m.nextModuleID++
	m.modules[module.ID] = module
	return module
}

func (m *MockRepository) AddEnrollment(studentID string, moduleID uint, status *models.EnrollmentStatus) *models.Enrollment {
	enrollment := &models.Enrollment{
		StudentID: studentID,
		ModuleID:  moduleID,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if status != nil {
		now := time.Now()
		enrollment.CompletedAt = &now
	}
	m.enrollments[enrollmentKey(studentID, moduleID)] = enrollment
	return enrollment
}

func (m *MockRepository) AddTeaching(teacherID string, moduleID uint) {
	m.teaching[enrollmentKey(teacherID, moduleID)] = &models.TeachingAssignment{
		TeacherID: teacherID,
		ModuleID:  moduleID,
		CreatedAt: time.Now(),
	}
}

func (m *MockRepository) ensureRole(name models.RoleName) *models.UserRole {
	if role, ok := m.roles[name]; ok {
		return role
	}
	role := &models.UserRole{ID: m.nextRoleID, Name: name}
	m.nextRoleID++
	m.roles[name] = role
	return role
}

// ===== Repository =====

func (m *MockRepository) User() repositories.UserRepository             { return &mockUserRepo{m} }
func (m *MockRepository) Module() repositories.ModuleRepository         { return &mockModuleRepo{m} }
func (m *MockRepository) Enrollment() repositories.EnrollmentRepository { return &mockEnrollmentRepo{m} }
func (m *MockRepository) Teaching() repositories.TeachingRepository     { return &mockTeachingRepo{m} }
func (m *MockRepository) Chat() repositories.ChatRepository             { return &mockChatRepo{m} }
func (m *MockRepository) Dashboard() repositories.DashboardRepository   { return &mockDashboardRepo{m} }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// ===== user repo =====

type mockUserRepo struct{ m *MockRepository }

func (r *mockUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.m.users[user.ID] = user
	return nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	user, ok := r.m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *mockUserRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	r.m.lockedUsers = append(r.m.lockedUsers, id)
	return r.GetByID(ctx, tx, id)
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	for _, user := range r.m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if _, ok := r.m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.users[user.ID] = user
	return nil
}

func (r *mockUserRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	if _, ok := r.m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.users, id)
	// Cascade like the real schema does.
	for key, enrollment := range r.m.enrollments {
		if enrollment.StudentID == id {
			delete(r.m.enrollments, key)
		}
	}
	for key, assignment := range r.m.teaching {
		if assignment.TeacherID == id {
			delete(r.m.teaching, key)
		}
	}
	return nil
}

func (r *mockUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var users []*models.User
	for _, user := range r.m.users {
		if filters.Role != nil && user.RoleName() != *filters.Role {
			continue
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, int64(len(users)), nil
}

func (r *mockUserRepo) EnsureRole(ctx context.Context, tx *gorm.DB, name models.RoleName) (*models.UserRole, error) {
	return r.m.ensureRole(name), nil
}

func (r *mockUserRepo) SetRole(ctx context.Context, tx *gorm.DB, userID string, roleID *uint) error {
	user, ok := r.m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.RoleID = roleID
	user.Role = nil
	if roleID != nil {
		for _, role := range r.m.roles {
			if role.ID == *roleID {
				user.Role = role
			}
		}
	}
	return nil
}

func (r *mockUserRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, tx, email)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	return err == nil, err
}

// ===== module repo =====

type mockModuleRepo struct{ m *MockRepository }

func (r *mockModuleRepo) Create(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	module.ID = r.m.nextModuleID
	r.m.nextModuleID++
	r.m.modules[module.ID] = module
	return nil
}

func (r *mockModuleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	module, ok := r.m.modules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	count, _ := (&mockEnrollmentRepo{r.m}).CountActiveByModule(ctx, tx, id)
	module.EnrolledCount = int(count)
	return module, nil
}

func (r *mockModuleRepo) Update(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	if _, ok := r.m.modules[module.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.m.modules[module.ID] = module
	return nil
}

func (r *mockModuleRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.m.modules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.modules, id)
	for key, enrollment := range r.m.enrollments {
		if enrollment.ModuleID == id {
			delete(r.m.enrollments, key)
		}
	}
	for key, assignment := range r.m.teaching {
		if assignment.ModuleID == id {
			delete(r.m.teaching, key)
		}
	}
	return nil
}

func (r *mockModuleRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ModuleFilters) ([]*models.Module, int64, error) {
	var modules []*models.Module
	for _, module := range r.m.modules {
		if filters.Available != nil && module.Available != *filters.Available {
			continue
		}
		modules = append(modules, module)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules, int64(len(modules)), nil
}

func (r *mockModuleRepo) ListAvailable(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ModuleFilters) ([]*models.Module, int64, error) {
	var modules []*models.Module
	for _, module := range r.m.modules {
		if !module.Available {
			continue
		}
		if _, enrolled := r.m.enrollments[enrollmentKey(studentID, module.ID)]; enrolled {
			continue
		}
		count, _ := (&mockEnrollmentRepo{r.m}).CountActiveByModule(ctx, tx, module.ID)
		if int(count) >= module.Capacity {
			continue
		}
		module.EnrolledCount = int(count)
		modules = append(modules, module)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules, int64(len(modules)), nil
}

func (r *mockModuleRepo) SetAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error {
	module, ok := r.m.modules[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	module.Available = available
	return nil
}

func (r *mockModuleRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	_, ok := r.m.modules[id]
	return ok, nil
}

// ===== enrollment repo =====

type mockEnrollmentRepo struct{ m *MockRepository }

func (r *mockEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	key := enrollmentKey(enrollment.StudentID, enrollment.ModuleID)
	if _, ok := r.m.enrollments[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now()
	}
	r.m.enrollments[key] = enrollment
	return nil
}

func (r *mockEnrollmentRepo) Get(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint) (*models.Enrollment, error) {
	enrollment, ok := r.m.enrollments[enrollmentKey(studentID, moduleID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return enrollment, nil
}

func (r *mockEnrollmentRepo) Delete(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint) error {
	key := enrollmentKey(studentID, moduleID)
	if _, ok := r.m.enrollments[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.enrollments, key)
	return nil
}

func (r *mockEnrollmentRepo) SetStatus(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint, status models.EnrollmentStatus) error {
	enrollment, ok := r.m.enrollments[enrollmentKey(studentID, moduleID)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	enrollment.Status = &status
	enrollment.CompletedAt = &now
	return nil
}

func (r *mockEnrollmentRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	var enrollments []*models.Enrollment
	for _, enrollment := range r.m.enrollments {
		if enrollment.StudentID != studentID {
			continue
		}
		if filters.Active != nil && enrollment.Active() != *filters.Active {
			continue
		}
		enrollments = append(enrollments, enrollment)
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].ModuleID < enrollments[j].ModuleID })
	return enrollments, int64(len(enrollments)), nil
}

func (r *mockEnrollmentRepo) ListByModule(ctx context.Context, tx *gorm.DB, moduleID uint, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	var enrollments []*models.Enrollment
	for _, enrollment := range r.m.enrollments {
		if enrollment.ModuleID != moduleID {
			continue
		}
		enrollments = append(enrollments, enrollment)
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].StudentID < enrollments[j].StudentID })
	return enrollments, int64(len(enrollments)), nil
}

func (r *mockEnrollmentRepo) Roster(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*repositories.RosterEntry, error) {
	var entries []*repositories.RosterEntry
	for _, enrollment := range r.m.enrollments {
		if enrollment.ModuleID != moduleID {
			continue
		}
		entry := &repositories.RosterEntry{
			StudentID:   enrollment.StudentID,
			Status:      enrollment.Status,
			EnrolledAt:  enrollment.CreatedAt,
			CompletedAt: enrollment.CompletedAt,
		}
		if user, ok := r.m.users[enrollment.StudentID]; ok {
			entry.FullName = user.FullName
			entry.Email = user.Email
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].StudentID < entries[j].StudentID })
	return entries, nil
}

func (r *mockEnrollmentRepo) CountActiveByStudent(ctx context.Context, tx *gorm.DB, studentID string) (int64, error) {
	var count int64
	for _, enrollment := range r.m.enrollments {
		if enrollment.StudentID == studentID && enrollment.Active() {
			count++
		}
	}
	return count, nil
}

func (r *mockEnrollmentRepo) CountActiveByModule(ctx context.Context, tx *gorm.DB, moduleID uint) (int64, error) {
	var count int64
	for _, enrollment := range r.m.enrollments {
		if enrollment.ModuleID == moduleID && enrollment.Active() {
			count++
		}
	}
	return count, nil
}

func (r *mockEnrollmentRepo) Exists(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint) (bool, error) {
	_, ok := r.m.enrollments[enrollmentKey(studentID, moduleID)]
	return ok, nil
}

// ===== teaching repo =====

type mockTeachingRepo struct{ m *MockRepository }

func (r *mockTeachingRepo) Attach(ctx context.Context, tx *gorm.DB, assignment *models.TeachingAssignment) error {
	key := enrollmentKey(assignment.TeacherID, assignment.ModuleID)
	if _, ok := r.m.teaching[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.m.teaching[key] = assignment
	return nil
}

func (r *mockTeachingRepo) Detach(ctx context.Context, tx *gorm.DB, teacherID string, moduleID uint) error {
	key := enrollmentKey(teacherID, moduleID)
	if _, ok := r.m.teaching[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.teaching, key)
	return nil
}

func (r *mockTeachingRepo) Exists(ctx context.Context, tx *gorm.DB, teacherID string, moduleID uint) (bool, error) {
	_, ok := r.m.teaching[enrollmentKey(teacherID, moduleID)]
	return ok, nil
}

func (r *mockTeachingRepo) ListModules(ctx context.Context, tx *gorm.DB, teacherID string) ([]*models.Module, error) {
	var modules []*models.Module
	for _, assignment := range r.m.teaching {
		if assignment.TeacherID != teacherID {
			continue
		}
		if module, ok := r.m.modules[assignment.ModuleID]; ok {
			modules = append(modules, module)
		}
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules, nil
}

func (r *mockTeachingRepo) ListTeachers(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.User, error) {
	var teachers []*models.User
	for _, assignment := range r.m.teaching {
		if assignment.ModuleID != moduleID {
			continue
		}
		if user, ok := r.m.users[assignment.TeacherID]; ok {
			teachers = append(teachers, user)
		}
	}
	return teachers, nil
}

// ===== chat repo =====

type mockChatRepo struct{ m *MockRepository }

func (r *mockChatRepo) Create(ctx context.Context, tx *gorm.DB, message *models.ChatMessage) error {
	message.ID = uint(len(r.m.chats) + 1)
	r.m.chats = append(r.m.chats, message)
	return nil
}

func (r *mockChatRepo) CreateBatch(ctx context.Context, tx *gorm.DB, messages []*models.ChatMessage) error {
	for _, message := range messages {
		if err := r.Create(ctx, tx, message); err != nil {
			return err
		}
	}
	return nil
}

func (r *mockChatRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ChatHistoryFilters) ([]*models.ChatMessage, int64, error) {
	var messages []*models.ChatMessage
	for _, message := range r.m.chats {
		if message.UserID != nil && *message.UserID == userID {
			messages = append(messages, message)
		}
	}
	total := int64(len(messages))
	if filters.Offset > 0 {
		if filters.Offset >= len(messages) {
			messages = nil
		} else {
			messages = messages[filters.Offset:]
		}
	}
	if filters.Limit > 0 && filters.Limit < len(messages) {
		messages = messages[:filters.Limit]
	}
	return messages, total, nil
}

func (r *mockChatRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) error {
	var kept []*models.ChatMessage
	for _, message := range r.m.chats {
		if message.UserID == nil || *message.UserID != userID {
			kept = append(kept, message)
		}
	}
	r.m.chats = kept
	return nil
}

// ===== dashboard repo =====

type mockDashboardRepo struct{ m *MockRepository }

func (r *mockDashboardRepo) GetPlatformStats(ctx context.Context, tx *gorm.DB) (*repositories.PlatformStats, error) {
	stats := &repositories.PlatformStats{}
	for _, user := range r.m.users {
		switch user.RoleName() {
		case models.RoleStudent:
			stats.TotalStudents++
		case models.RoleTeacher:
			stats.TotalTeachers++
		}
	}
	for _, module := range r.m.modules {
		stats.TotalModules++
		if module.Available {
			stats.AvailableModules++
		}
	}
	for _, enrollment := range r.m.enrollments {
		switch {
		case enrollment.Active():
			stats.ActiveEnrollments++
		case *enrollment.Status == models.EnrollmentPass:
			stats.PassedEnrollments++
		default:
			stats.FailedEnrollments++
		}
	}
	if graded := stats.PassedEnrollments + stats.FailedEnrollments; graded > 0 {
		stats.PassRate = float64(stats.PassedEnrollments) / float64(graded)
	}
	return stats, nil
}
