package model

import "time"

const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	BioMaxLength      = 300
)

type Profile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio"`
	FavoriteGenres []string  `json:"favoriteGenres"`
	AvatarURL      string    `json:"avatarUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
