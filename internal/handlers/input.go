package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their json names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// formBinder is implemented by inputs that can also arrive as an HTML form.
type formBinder interface {
	fromForm(url.Values)
}

type credentialsInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

func (in *credentialsInput) fromForm(f url.Values) {
	in.Username = f.Get("username")
	in.Password = f.Get("password")
}

type postInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required"`
}

func (in *postInput) fromForm(f url.Values) {
	in.Title = f.Get("title")
	in.Body = f.Get("body")
}

func (in *postInput) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
}

type searchInput struct {
	Term string `json:"searchTerm"`
}

func (in *searchInput) fromForm(f url.Values) {
	in.Term = f.Get("searchTerm")
}

// isJSON reports whether the request body is JSON.
func isJSON(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "application/json"
}

// wantsJSON reports whether the client expects JSON instead of a redirect.
func wantsJSON(r *http.Request) bool {
	return isJSON(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}

// decodeInput fills dst from a JSON body or from form values.
func decodeInput(r *http.Request, dst formBinder) error {
	if isJSON(r) {
		return json.NewDecoder(r.Body).Decode(dst)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	dst.fromForm(r.PostForm)
	return nil
}

// validationFields maps validator errors to {field: tag}. ok is false for non-validation errors.
func validationFields(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields, true
}

// bindAndValidate decodes and validates dst, writing a 400 on failure.
func bindAndValidate(w http.ResponseWriter, r *http.Request, dst formBinder) bool {
	if err := decodeInput(r, dst); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if p, ok := dst.(*postInput); ok {
		p.trim()
	}
	if err := validate.Struct(dst); err != nil {
		if fields, ok := validationFields(err); ok {
			JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
			return false
		}
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// postID parses the {id} route parameter.
func postID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		JSONError(w, "invalid post id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
