package handler

import (
	"net/http"

	"otaku_hub/internal/common"
)

func Health(w http.ResponseWriter, _ *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
