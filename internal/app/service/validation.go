package service

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"otaku_hub/internal/common"
	"otaku_hub/internal/domain/model"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MsgNameTooShort     = "Name must be at least 2 characters long."
	MsgInvalidEmail     = "A valid email is required."
	MsgPasswordTooShort = "Password must be at least 8 characters long."
	MsgPasswordRequired = "Password is required."
	MsgUsernameTooShort = "Username must be at least 3 characters long."
	MsgUsernameTooLong  = "Username cannot exceed 30 characters."
	MsgBioTooLong       = "Bio cannot exceed 300 characters."
	MsgGenresNotArray   = "favoriteGenres must be an array of strings."
	MsgAvatarNotString  = "avatarUrl must be a string."

	minNameLength     = 2
	minPasswordLength = 8
)

// ValidateRegistration checks name, email and password in that order and
// returns the first failure.
func ValidateRegistration(req RegisterRequest) error {
	if utf8.RuneCountInString(strings.TrimSpace(req.Name)) < minNameLength {
		return common.NewValidationError(MsgNameTooShort)
	}
	if !emailRegex.MatchString(req.Email) {
		return common.NewValidationError(MsgInvalidEmail)
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return common.NewValidationError(MsgPasswordTooShort)
	}
	return nil
}

func ValidateLogin(req LoginRequest) error {
	if !emailRegex.MatchString(req.Email) {
		return common.NewValidationError(MsgInvalidEmail)
	}
	if req.Password == "" {
		return common.NewValidationError(MsgPasswordRequired)
	}
	return nil
}

// ProfileInput is a validated profile body with defaults applied.
type ProfileInput struct {
	Username       string
	Bio            string
	FavoriteGenres []string
	AvatarURL      string
}

// ValidateProfile checks username, bio, favoriteGenres and avatarUrl in that
// order. Omitted optional fields come back as their defaults.
func ValidateProfile(req UpsertProfileRequest) (ProfileInput, error) {
	username := strings.TrimSpace(req.Username)
	if utf8.RuneCountInString(username) < model.UsernameMinLength {
		return ProfileInput{}, common.NewValidationError(MsgUsernameTooShort)
	}
	if utf8.RuneCountInString(username) > model.UsernameMaxLength {
		return ProfileInput{}, common.NewValidationError(MsgUsernameTooLong)
	}
	if utf8.RuneCountInString(req.Bio) > model.BioMaxLength {
		return ProfileInput{}, common.NewValidationError(MsgBioTooLong)
	}

	genres := []string{}
	if present(req.FavoriteGenres) {
		if bytes.TrimSpace(req.FavoriteGenres)[0] != '[' {
			return ProfileInput{}, common.NewValidationError(MsgGenresNotArray)
		}
		if err := json.Unmarshal(req.FavoriteGenres, &genres); err != nil {
			return ProfileInput{}, common.NewValidationError(MsgGenresNotArray)
		}
	}

	avatarURL := ""
	if present(req.AvatarURL) {
		if err := json.Unmarshal(req.AvatarURL, &avatarURL); err != nil {
			return ProfileInput{}, common.NewValidationError(MsgAvatarNotString)
		}
	}

	return ProfileInput{
		Username:       username,
		Bio:            req.Bio,
		FavoriteGenres: genres,
		AvatarURL:      avatarURL,
	}, nil
}

// present reports whether a raw JSON field was sent with a non-null value.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// DefaultUsername derives the initial profile username from a display name:
// lower-cased with all whitespace removed, capped at the username limit.
func DefaultUsername(name string) string {
	username := strings.ToLower(strings.Join(strings.Fields(name), ""))
	if utf8.RuneCountInString(username) > model.UsernameMaxLength {
		username = string([]rune(username)[:model.UsernameMaxLength])
	}
	return username
}
