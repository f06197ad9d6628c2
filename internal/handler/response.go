package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rollcall/attendance-server-go/internal/apperrors"
	"github.com/rollcall/attendance-server-go/internal/httputil"
	"github.com/rollcall/attendance-server-go/internal/util"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// decodeAndValidate reads a JSON body into req and runs its validator tags.
func decodeAndValidate(r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if err := util.ValidateStruct(req); err != nil {
		return apperrors.ValidationError(err.Error())
	}
	return nil
}
