package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/kakeibo/internal/service"
)

// ErrorView is the rendering context of the login and register pages.
type ErrorView struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, ErrorView{Error: "not found"})
}

// redirectWithError sends the browser back to path with the error code of err.
// Backend failures are logged; validation problems are not.
func redirectWithError(w http.ResponseWriter, r *http.Request, log *zap.Logger, path string, err error) {
	code := service.ErrorCode(err)
	if code == service.CodeServer {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	http.Redirect(w, r, path+"?error="+url.QueryEscape(code), http.StatusFound)
}

// serverError answers a failed GET view generically.
func serverError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, ErrorView{Error: service.CodeServer})
}

// formValues reads the submitted fields from a JSON object body or from an
// url-encoded or multipart form.
func formValues(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		return r.PostForm, nil
	}

	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}

	values := url.Values{}
	for k, v := range body {
		switch v := v.(type) {
		case string:
			values.Set(k, v)
		case json.Number:
			values.Set(k, v.String())
		case nil:
		default:
			values.Set(k, fmt.Sprint(v))
		}
	}
	return values, nil
}

func itemIDParam(r *http.Request) (int64, bool) {
	return parseID(chi.URLParam(r, "id"))
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
