package service

import (
	"music_academy_backend/internal/model"
	"music_academy_backend/internal/repository"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

// ListStudents 管理面板的学生总览
func (s *UserService) ListStudents() ([]model.StudentOverview, error) {
	return s.UserRepo.ListStudents()
}
