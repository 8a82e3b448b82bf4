package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"otaku_hub/internal/common"
	"otaku_hub/internal/domain/model"
)

type ProfileRepository interface {
	Create(ctx context.Context, tx *sql.Tx, profile *model.Profile) error
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)
	// Upsert inserts the profile or replaces every mutable field of the
	// existing one for the same user. The stored row is returned.
	Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error)
}

type pgProfileRepository struct {
	db *sql.DB
}

func NewPgProfileRepository(db *sql.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

const profileColumns = `id, user_id, username, bio, favorite_genres, avatar_url, created_at, updated_at`

func (r *pgProfileRepository) Create(ctx context.Context, tx *sql.Tx, p *model.Profile) error {
	genres, err := encodeGenres(p.FavoriteGenres)
	if err != nil {
		return err
	}
	query := `INSERT INTO profiles (id, user_id, username, bio, favorite_genres, avatar_url)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`

	err = conn(r.db, tx).QueryRowContext(ctx, query, p.ID, p.UserID, p.Username, p.Bio, genres, p.AvatarURL).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("profile for user already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProfileRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProfileRepository) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByUserID: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepository) Upsert(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	genres, err := encodeGenres(p.FavoriteGenres)
	if err != nil {
		return nil, err
	}
	query := `INSERT INTO profiles (id, user_id, username, bio, favorite_genres, avatar_url)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (user_id) DO UPDATE SET
	              username = EXCLUDED.username,
	              bio = EXCLUDED.bio,
	              favorite_genres = EXCLUDED.favorite_genres,
	              avatar_url = EXCLUDED.avatar_url,
	              updated_at = CURRENT_TIMESTAMP
	          RETURNING ` + profileColumns

	stored, err := scanProfile(r.db.QueryRowContext(ctx, query, p.ID, p.UserID, p.Username, p.Bio, genres, p.AvatarURL))
	if err != nil {
		return nil, fmt.Errorf("pgProfileRepository.Upsert: %w", err)
	}
	return stored, nil
}

func scanProfile(row *sql.Row) (*model.Profile, error) {
	p := &model.Profile{}
	var genres []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.Bio, &genres, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.FavoriteGenres = []string{}
	if len(genres) > 0 {
		if err := json.Unmarshal(genres, &p.FavoriteGenres); err != nil {
			return nil, fmt.Errorf("decode favorite_genres: %w", err)
		}
	}
	if p.FavoriteGenres == nil {
		p.FavoriteGenres = []string{}
	}
	return p, nil
}

func encodeGenres(genres []string) (string, error) {
	if genres == nil {
		genres = []string{}
	}
	b, err := json.Marshal(genres)
	if err != nil {
		return "", fmt.Errorf("encode favorite_genres: %w", err)
	}
	return string(b), nil
}
