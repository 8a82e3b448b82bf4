package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"otaku_hub/internal/common"
	"otaku_hub/internal/domain/model"
	"otaku_hub/internal/domain/repository"
	"otaku_hub/internal/platform/logging"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const MsgProfileNotFound = "Profile not found."

// ProfileCache is the optional read-through cache in front of the profile
// repository. Cache failures are logged and never fail a request.
//
// Set overwrites unconditionally and is used after an upsert. Fill must not
// replace an existing entry; reads use it so a row loaded before a concurrent
// upsert cannot overwrite the newer one.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Set(ctx context.Context, p *model.Profile) error
	Fill(ctx context.Context, p *model.Profile) error
	Invalidate(ctx context.Context, userID string) error
}

type ProfileService struct {
	profileRepo repository.ProfileRepository
	cache       ProfileCache // nil when Redis is not configured
	log         logging.Logger
	reads       singleflight.Group
}

func NewProfileService(profileRepo repository.ProfileRepository, cache ProfileCache, log logging.Logger) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, cache: cache, log: log}
}

// UpsertProfileRequest is the PUT /profile/me body. favoriteGenres and
// avatarUrl stay raw so their JSON type can be checked.
type UpsertProfileRequest struct {
	Username       string          `json:"username"`
	Bio            string          `json:"bio"`
	FavoriteGenres json.RawMessage `json:"favoriteGenres"`
	AvatarURL      json.RawMessage `json:"avatarUrl"`
}

func (s *ProfileService) GetMyProfile(ctx context.Context, id model.Identity) (*model.Profile, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id.UserID)
		if err != nil {
			s.log.Warn(ctx, "profile cache read failed", "user_id", id.UserID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	v, err, _ := s.reads.Do(id.UserID, func() (interface{}, error) {
		return s.profileRepo.FindByUserID(ctx, id.UserID)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewNotFoundError(MsgProfileNotFound)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	profile := v.(*model.Profile)

	if s.cache != nil {
		if err := s.cache.Fill(ctx, profile); err != nil {
			s.log.Warn(ctx, "profile cache fill failed", "user_id", id.UserID, "error", err)
		}
	}
	return profile, nil
}

// UpsertMyProfile fully replaces the caller's profile, creating it when
// absent. Optional fields left out of req are reset to their defaults.
func (s *ProfileService) UpsertMyProfile(ctx context.Context, id model.Identity, req UpsertProfileRequest) (*model.Profile, error) {
	input, err := ValidateProfile(req)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		ID:             uuid.NewString(), // Ignored when the row already exists
		UserID:         id.UserID,
		Username:       input.Username,
		Bio:            input.Bio,
		FavoriteGenres: input.FavoriteGenres,
		AvatarURL:      input.AvatarURL,
	}

	stored, err := s.profileRepo.Upsert(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, stored); err != nil {
			s.log.Warn(ctx, "profile cache write failed", "user_id", id.UserID, "error", err)
			if err := s.cache.Invalidate(ctx, id.UserID); err != nil {
				s.log.Warn(ctx, "profile cache invalidation failed", "user_id", id.UserID, "error", err)
			}
		}
	}
	return stored, nil
}
