package handler

import (
	"net/http"

	"otaku_hub/internal/api/middleware"
	"otaku_hub/internal/app/service"
	"otaku_hub/internal/common"
	"otaku_hub/internal/common/security"
	"otaku_hub/internal/domain/model"
	"otaku_hub/internal/platform/logging"

	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	tokens         middleware.TokenVerifier
	log            logging.Logger
}

func NewProfileHandler(profileService *service.ProfileService, tokens middleware.TokenVerifier, log logging.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, tokens: tokens, log: log}
}

type profileResponse struct {
	Profile *model.Profile `json:"profile"`
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authR chi.Router) {
		authR.Use(middleware.RequireAuth(h.tokens))
		authR.Get("/me", h.getMe)
		authR.Put("/me", h.putMe)
	})
}

func (h *ProfileHandler) getMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, security.MsgInvalidToken)
		return
	}

	profile, err := h.profileService.GetMyProfile(r.Context(), identity)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profileResponse{Profile: profile})
}

func (h *ProfileHandler) putMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, security.MsgInvalidToken)
		return
	}

	var req service.UpsertProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, common.MsgInvalidPayload)
		return
	}

	profile, err := h.profileService.UpsertMyProfile(r.Context(), identity, req)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profileResponse{Profile: profile})
}
