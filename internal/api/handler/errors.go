package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"otaku_hub/internal/common"
	"otaku_hub/internal/platform/logging"

	"github.com/go-chi/chi/v5/middleware"
)

// respondWithError writes err to the client and logs anything that maps to a
// 500, since the client only ever sees the generic message for those.
func respondWithError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status := common.HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	common.RespondWithAppError(w, err)
}

// decodeJSON reads the request body into v. A missing or empty body leaves v
// at its zero value so field validation reports what is missing.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
