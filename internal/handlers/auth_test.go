package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/blog/internal/auth"
	"github.com/crucial707/blog/internal/middleware"
	"github.com/crucial707/blog/internal/repo"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

func newAuthHandler(db *sql.DB) *AuthHandler {
	tokens := auth.NewTokenIssuer(testSecret, time.Hour)
	svc := auth.NewService(repo.NewUserRepo(db), tokens, bcrypt.MinCost)
	return &AuthHandler{Auth: svc, Verifier: tokens, Render: JSONRenderer{}, SessionTTL: time.Hour}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func jsonRequest(method, path string, v any) *http.Request {
	body, _ := json.Marshal(v)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login_Form(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}).AddRow(1, "admin", mustHash(t, "hunter2")))

	h := newAuthHandler(db)
	rr := httptest.NewRecorder()
	h.Login(rr, formRequest("POST", "/admin", url.Values{"username": {"admin"}, "password": {"hunter2"}}))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("Login status: got %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location: got %q", loc)
	}
	c := sessionCookie(rr)
	if c == nil || !c.HttpOnly || c.Path != "/" {
		t.Fatalf("expected HttpOnly token cookie, got %+v", c)
	}
	if c.MaxAge != 3600 {
		t.Errorf("cookie MaxAge: got %d, want 3600", c.MaxAge)
	}
	userID, err := h.Verifier.Verify(c.Value)
	if err != nil || userID != 1 {
		t.Errorf("cookie token: id=%d err=%v", userID, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_JSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}).AddRow(4, "admin", mustHash(t, "pw")))

	h := newAuthHandler(db)
	rr := httptest.NewRecorder()
	h.Login(rr, jsonRequest("POST", "/admin", map[string]string{"username": "admin", "password": "pw"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("Login status: got %d, want 200", rr.Code)
	}
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID           int    `json:"id"`
			Username     string `json:"username"`
			PasswordHash string `json:"password_hash"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Token == "" || out.User.ID != 4 || out.User.PasswordHash != "" {
		t.Errorf("unexpected response: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_FailuresAreIdentical(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}).AddRow(1, "admin", mustHash(t, "right")))
	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	h := newAuthHandler(db)

	wrongPass := httptest.NewRecorder()
	h.Login(wrongPass, formRequest("POST", "/admin", url.Values{"username": {"admin"}, "password": {"wrong"}}))

	noUser := httptest.NewRecorder()
	h.Login(noUser, formRequest("POST", "/admin", url.Values{"username": {"nobody"}, "password": {"right"}}))

	if wrongPass.Code != http.StatusUnauthorized || noUser.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d and %d, want 401", wrongPass.Code, noUser.Code)
	}
	if !bytes.Equal(wrongPass.Body.Bytes(), noUser.Body.Bytes()) {
		t.Errorf("bodies differ: %q vs %q", wrongPass.Body.String(), noUser.Body.String())
	}
	if sessionCookie(wrongPass) != nil || sessionCookie(noUser) != nil {
		t.Error("no cookie should be set on failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_StorageError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("admin").
		WillReturnError(sql.ErrConnDone)

	h := newAuthHandler(db)
	rr := httptest.NewRecorder()
	h.Login(rr, jsonRequest("POST", "/admin", map[string]string{"username": "admin", "password": "x"}))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Login status: got %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "sql") {
		t.Errorf("internal detail leaked: %s", rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newAuthHandler(db)
	req := httptest.NewRequest("POST", "/admin", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Login status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(username, password_hash\)`).
		WithArgs("bob", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(2, "bob"))

	h := newAuthHandler(db)
	rr := httptest.NewRecorder()
	h.Register(rr, jsonRequest("POST", "/register", map[string]string{"username": "bob", "password": "secret"}))

	if rr.Code != http.StatusCreated {
		t.Errorf("Register status: got %d, want 201", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "$2a$") {
		t.Errorf("password hash leaked: %s", rr.Body.String())
	}
	var out struct {
		Message string `json:"message"`
		User    struct {
			ID       int    `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.User.ID != 2 || out.User.Username != "bob" {
		t.Errorf("unexpected user: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(username, password_hash\)`).
		WithArgs("bob", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	h := newAuthHandler(db)
	rr := httptest.NewRecorder()
	h.Register(rr, jsonRequest("POST", "/register", map[string]string{"username": "bob", "password": "secret"}))

	if rr.Code != http.StatusConflict {
		t.Errorf("Register status: got %d, want 409", rr.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "username already in use" {
		t.Errorf("unexpected error: %v", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newAuthHandler(db)
	rr := httptest.NewRecorder()
	h.Register(rr, formRequest("POST", "/register", url.Values{"username": {"bob"}}))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Register status: got %d, want 400", rr.Code)
	}
	var out struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Error != "validation failed" || out.Fields["password"] != "required" {
		t.Errorf("unexpected response: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_LoginPage_RedirectsWhenLoggedIn(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newAuthHandler(db)
	token, err := auth.NewTokenIssuer(testSecret, time.Hour).Issue(1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	h.LoginPage(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Errorf("LoginPage status: got %d, want 303", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.LoginPage(rr, httptest.NewRequest("GET", "/admin", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"view":"admin/index"`) {
		t.Errorf("LoginPage: got %d %s", rr.Code, rr.Body.String())
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	h := &AuthHandler{Render: JSONRenderer{}}
	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest("GET", "/logout", nil))

	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Errorf("Logout: got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	c := sessionCookie(rr)
	if c == nil || c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("expected cleared cookie, got %+v", c)
	}
}
