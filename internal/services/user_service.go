package services

import (
	"context"
	"errors"

	"excos_backend/internal/logger"
	"excos_backend/internal/models"
	"excos_backend/internal/repositories"
	"excos_backend/internal/services/dto"
	"excos_backend/pkg/apperrors"
)

type UserService interface {
	GetProfile(userID string) (*dto.UserDTO, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserDTO, error)
	ListByRole(role models.UserRole, page, pageSize int) (*dto.UserListResponse, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(userID string) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	u := dto.NewUserDTO(user)
	return &u, nil
}

// UpdateProfile applies the non-empty fields of the request.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Level != "" {
		user.Level = req.Level
	}
	if req.Department != "" {
		user.Department = req.Department
	}
	if req.Faculty != "" {
		user.Faculty = req.Faculty
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "profile updated", "user_id", userID)

	u := dto.NewUserDTO(user)
	return &u, nil
}

// ListByRole returns a page of accounts with the given role.
func (s *userService) ListByRole(role models.UserRole, page, pageSize int) (*dto.UserListResponse, error) {
	if _, ok := models.ValidRoles[role]; !ok {
		return nil, apperrors.ErrInvalidUserRole
	}

	total, err := s.userRepo.CountByRole(role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	users, err := s.userRepo.FindByRole(role, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.UserListResponse{
		Users:    make([]dto.UserDTO, 0, len(users)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range users {
		resp.Users = append(resp.Users, dto.NewUserDTO(&users[i]))
	}
	return resp, nil
}
