package usecase

import (
	"context"
	"strings"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/repository"
	"convochat/pkg/errors"
	"convochat/pkg/logger"
)

const userDirectoryLimit = 50

type UserUseCase struct {
	userRepo     repository.UserRepository
	firebaseAuth FirebaseAuthClient
}

func NewUserUseCase(userRepo repository.UserRepository, firebaseAuth FirebaseAuthClient) *UserUseCase {
	return &UserUseCase{
		userRepo:     userRepo,
		firebaseAuth: firebaseAuth,
	}
}

type UpsertProfileInput struct {
	Email       string
	DisplayName string
	Avatar      string
}

// UpsertProfile stores the caller's profile and marks them online. Fields the
// caller leaves empty are taken from their Firebase identity.
func (uc *UserUseCase) UpsertProfile(ctx context.Context, uid string, input UpsertProfileInput) (*entity.User, error) {
	user := &entity.User{
		UID:         uid,
		Email:       strings.TrimSpace(input.Email),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Avatar:      input.Avatar,
	}

	if user.Email == "" || user.DisplayName == "" {
		uc.fillFromIdentity(ctx, user)
	}
	if user.Email == "" {
		return nil, errors.Validation("Email is required")
	}

	if err := uc.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}

	return uc.userRepo.GetByID(ctx, uid)
}

func (uc *UserUseCase) fillFromIdentity(ctx context.Context, user *entity.User) {
	if uc.firebaseAuth == nil {
		return
	}
	identity, err := uc.firebaseAuth.LookupIdentity(ctx, user.UID)
	if err != nil {
		logger.Warn("Could not look up Firebase identity for %s: %v", user.UID, err)
		return
	}
	if user.Email == "" {
		user.Email = identity.Email
	}
	if user.DisplayName == "" {
		user.DisplayName = identity.DisplayName
	}
	if user.Avatar == "" {
		user.Avatar = identity.PhotoURL
	}
}

func (uc *UserUseCase) SetOnline(ctx context.Context, uid string, online bool) error {
	return uc.userRepo.SetOnlineStatus(ctx, uid, online)
}

func (uc *UserUseCase) GetUser(ctx context.Context, uid string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, uid)
}

// ListUsers returns the directory ordered by display name, without the viewer.
func (uc *UserUseCase) ListUsers(ctx context.Context, viewerID string) ([]*entity.User, error) {
	users, err := uc.userRepo.ListOrderedByName(ctx, userDirectoryLimit)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.User, 0, len(users))
	for _, user := range users {
		if user.UID == viewerID {
			continue
		}
		result = append(result, user)
	}
	return result, nil
}
