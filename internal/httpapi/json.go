package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/raysh454/webdiffengine/internal/apierr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAPIError maps an engine error to the status code its apierr.Kind
// assigns, falling back to 500 for errors the engines never classify.
func writeAPIError(w http.ResponseWriter, err error) {
	if kind, ok := apierr.As(err); ok {
		writeError(w, kind.HTTPStatus(), err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
