package repository

import (
	"music_academy_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

// FindByLogin 按用户名或邮箱查找，登录入口两者皆可
func (r *UserRepository) FindByLogin(login string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ? OR email = ?", login, login).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) ExistsByUsernameOrEmail(username, email string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdatePassword(userID uint, hashed string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hashed).Error
}

func (r *UserRepository) UpdateLastLogin(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", time.Now()).Error
}

// ListStudents 管理面板的学生列表，附带选课数和平均进度
func (r *UserRepository) ListStudents() ([]model.StudentOverview, error) {
	var rows []model.StudentOverview
	err := r.DB.Model(&model.User{}).
		Select(`users.id,
			users.full_name AS name,
			users.email,
			COUNT(up.id) AS enrollments_count,
			COALESCE(ROUND(AVG(up.progress_percentage)), 0) AS avg_progress`).
		Joins("LEFT JOIN user_progress up ON up.user_id = users.id").
		Where("users.role <> ?", model.Admin).
		Group("users.id, users.full_name, users.email").
		Order("users.id ASC").
		Scan(&rows).Error
	return rows, err
}
