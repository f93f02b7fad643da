package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-api/internal/authz"
	"crm-api/internal/cache"
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/repository"
	"crm-api/internal/response"
)

const roleCacheTTL = 5 * time.Minute

// Identity is what the auth token says about the caller
type Identity struct {
	UserID   uuid.UUID
	Email    string
	FullName string
}

// ProfileService manages profiles and application roles
type ProfileService interface {
	Me(ctx context.Context, id Identity) (*dto.MeResponse, error)
	UpdateRole(ctx context.Context, p authz.Principal, userID uuid.UUID, req *dto.UpdateRoleRequest) (*dto.ProfileResponse, error)
	ResolveRole(ctx context.Context, userID uuid.UUID) (authz.Role, error)
}

type profileServiceImpl struct {
	repo   repository.ProfileRepository
	cache  *cache.Cache
	logger *zap.Logger
}

// NewProfileService creates a new instance of ProfileService
func NewProfileService(repo repository.ProfileRepository, c *cache.Cache, logger *zap.Logger) ProfileService {
	return &profileServiceImpl{repo: repo, cache: c, logger: logger}
}

func rolePtr(role string) *string {
	if _, ok := authz.ParseRole(role); !ok {
		return nil
	}
	return &role
}

// Me returns the caller's profile, creating it without a role on first sight
func (s *profileServiceImpl) Me(ctx context.Context, id Identity) (*dto.MeResponse, error) {
	if err := s.repo.EnsureExists(ctx, &domain.Profile{
		BaseModel: domain.BaseModel{ID: id.UserID},
		FullName:  id.FullName,
		Email:     id.Email,
	}); err != nil {
		return nil, repoError(err, "", "Failed to create profile")
	}

	profile, err := s.repo.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, repoError(err, "Profile not found", "Failed to get profile")
	}

	role, _ := authz.ParseRole(profile.Role)
	return &dto.MeResponse{
		ID:          profile.ID,
		FullName:    profile.FullName,
		Email:       profile.Email,
		Role:        rolePtr(profile.Role),
		Permissions: authz.Permissions(role),
	}, nil
}

// UpdateRole sets another user's role. Only admins may do this.
func (s *profileServiceImpl) UpdateRole(ctx context.Context, p authz.Principal, userID uuid.UUID, req *dto.UpdateRoleRequest) (*dto.ProfileResponse, error) {
	if p.Role != authz.RoleAdmin {
		return nil, response.NewForbiddenError("Only admins can change roles")
	}
	if req.Role != "" {
		if _, ok := authz.ParseRole(req.Role); !ok {
			return nil, response.NewFieldValidationError([]response.FieldError{{Field: "role", Message: "الدور غير صحيح"}})
		}
	}

	if err := s.repo.UpdateRole(ctx, userID, req.Role); err != nil {
		return nil, repoError(err, "Profile not found", "Failed to update role")
	}
	s.cache.Delete(ctx, cache.ProfileRoleKey(userID))

	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "Profile not found", "Failed to get profile")
	}

	s.logger.Info("Role updated",
		zap.String("user_id", userID.String()),
		zap.String("role", req.Role),
		zap.String("actor_id", p.UserID.String()),
	)
	return &dto.ProfileResponse{
		ID:       profile.ID,
		FullName: profile.FullName,
		Email:    profile.Email,
		Role:     rolePtr(profile.Role),
	}, nil
}

// ResolveRole returns the stored role of a user. Users without a profile have no role.
func (s *profileServiceImpl) ResolveRole(ctx context.Context, userID uuid.UUID) (authz.Role, error) {
	var cached string
	if s.cache.Get(ctx, cache.ProfileRoleKey(userID), &cached) {
		role, _ := authz.ParseRole(cached)
		return role, nil
	}

	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	role, _ := authz.ParseRole(profile.Role)
	s.cache.SetWithTTL(ctx, cache.ProfileRoleKey(userID), string(role), roleCacheTTL)
	return role, nil
}
