package middleware

import (
	"mime"
	"net/http"
	"strings"
)

// MethodOverrideField is the form field HTML forms use to request PUT or DELETE.
const MethodOverrideField = "_method"

var overridableMethods = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride rewrites POST requests into PUT, PATCH or DELETE when the
// X-HTTP-Method-Override header or the _method form field asks for it.
// It must run before routing.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			m := r.Header.Get("X-HTTP-Method-Override")
			if m == "" && isForm(r) {
				m = r.PostFormValue(MethodOverrideField)
			}
			if m = strings.ToUpper(strings.TrimSpace(m)); overridableMethods[m] {
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isForm(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}
