package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/platform-skeleton/internal/core/domain"
	"github.com/99minutos/platform-skeleton/internal/core/ports"
)

type stubAccountService struct {
	loginFn   func(ctx context.Context, username, password string) (*ports.Session, *domain.Account, error)
	logoutFn  func(ctx context.Context, claims ports.SessionClaims) error
	currentFn func(ctx context.Context, username string) (*domain.Account, error)
	listFn    func(ctx context.Context, page int) (*ports.AccountPage, error)
}

func (s *stubAccountService) CreateSuperuser(ctx context.Context, username, email, password string) (*domain.Account, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAccountService) Login(ctx context.Context, username, password string) (*ports.Session, *domain.Account, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAccountService) Logout(ctx context.Context, claims ports.SessionClaims) error {
	return s.logoutFn(ctx, claims)
}

func (s *stubAccountService) VerifySession(ctx context.Context, token string) (*ports.SessionClaims, error) {
	return nil, domain.ErrInvalidCredentials
}

func (s *stubAccountService) Current(ctx context.Context, username string) (*domain.Account, error) {
	return s.currentFn(ctx, username)
}

func (s *stubAccountService) List(ctx context.Context, page int) (*ports.AccountPage, error) {
	return s.listFn(ctx, page)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func TestAdminHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	expires := time.Now().Add(time.Hour).UTC()
	stub := &stubAccountService{
		loginFn: func(ctx context.Context, username, password string) (*ports.Session, *domain.Account, error) {
			if username != "admin" || password != "s3cret" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &ports.Session{Token: "tok", ID: "sid", ExpiresAt: expires},
				&domain.Account{ID: "1", Username: "admin", PasswordHash: "hash", IsStaff: true, IsActive: true}, nil
		},
	}
	h := NewAdminHandler(stub, SessionCookie{Name: "sessionid", Secure: true})

	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tok" {
		t.Fatalf("expected token in body, got %v", resp["token"])
	}
	account, ok := resp["account"].(map[string]any)
	if !ok || account["username"] != "admin" {
		t.Fatalf("unexpected account: %v", resp["account"])
	}
	if _, leaked := account["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != "sessionid" || ck.Value != "tok" || !ck.Secure || !ck.HttpOnly || ck.MaxAge <= 0 {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
}

func TestAdminHandler_Login_Validation(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAccountService{}, SessionCookie{})

	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(`{"username":"admin"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "password is required") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAdminHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		loginFn: func(context.Context, string, string) (*ports.Session, *domain.Account, error) {
			return nil, nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAdminHandler(stub, SessionCookie{})

	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(`{"username":"admin","password":"bad"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("no cookie expected on failure")
	}
}

func TestAdminHandler_Login_UnexpectedErrorPropagates(t *testing.T) {
	e := newTestEcho()
	boom := errors.New("db down")
	stub := &stubAccountService{
		loginFn: func(context.Context, string, string) (*ports.Session, *domain.Account, error) {
			return nil, nil, boom
		},
	}
	h := NewAdminHandler(stub, SessionCookie{})

	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(`{"username":"admin","password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := h.Login(c); !errors.Is(err, boom) {
		t.Fatalf("expected db error, got %v", err)
	}
}

func withClaims(c echo.Context) {
	c.Set(ContextKeyClaims, &ports.SessionClaims{SessionID: "sid", AccountID: "1", Username: "admin", Role: domain.RoleSuperuser})
}

func TestAdminHandler_Logout(t *testing.T) {
	e := newTestEcho()
	var revoked string
	stub := &stubAccountService{
		logoutFn: func(ctx context.Context, claims ports.SessionClaims) error {
			revoked = claims.SessionID
			return nil
		},
	}
	h := NewAdminHandler(stub, SessionCookie{Name: "sessionid"})

	req := httptest.NewRequest(http.MethodPost, "/admin/logout/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withClaims(c)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if revoked != "sid" {
		t.Fatalf("expected session sid revoked, got %q", revoked)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, got %+v", cookies)
	}
}

func TestAdminHandler_Logout_MissingClaims(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAccountService{}, SessionCookie{})

	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/admin/logout/", nil), httptest.NewRecorder())

	err := h.Logout(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestAdminHandler_Me(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		currentFn: func(ctx context.Context, username string) (*domain.Account, error) {
			return &domain.Account{ID: "1", Username: username, IsSuperuser: true}, nil
		},
	}
	h := NewAdminHandler(stub, SessionCookie{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/", nil), rec)
	withClaims(c)

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"admin"`) {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func pageOf(page, size int, count int64, n int) *ports.AccountPage {
	results := make([]*domain.Account, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, &domain.Account{Username: "u"})
	}
	return &ports.AccountPage{Count: count, Page: page, PageSize: size, Results: results}
}

func TestAdminHandler_Accounts_Pagination(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		listFn: func(ctx context.Context, page int) (*ports.AccountPage, error) {
			if page != 2 {
				t.Fatalf("expected page 2, got %d", page)
			}
			return pageOf(2, 2, 5, 2), nil
		},
	}
	h := NewAdminHandler(stub, SessionCookie{})

	req := httptest.NewRequest(http.MethodGet, "/admin/accounts/?page=2", nil)
	req.Host = "api.example.com"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Accounts(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Count    int64            `json:"count"`
		Next     *string          `json:"next"`
		Previous *string          `json:"previous"`
		Results  []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Count != 5 || len(resp.Results) != 2 {
		t.Fatalf("unexpected page: %+v", resp)
	}
	if resp.Next == nil || *resp.Next != "http://api.example.com/admin/accounts/?page=3" {
		t.Fatalf("unexpected next: %v", resp.Next)
	}
	if resp.Previous == nil || *resp.Previous != "http://api.example.com/admin/accounts/" {
		t.Fatalf("unexpected previous: %v", resp.Previous)
	}
}

func TestAdminHandler_Accounts_FirstPage(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		listFn: func(ctx context.Context, page int) (*ports.AccountPage, error) {
			return pageOf(1, 20, 1, 1), nil
		},
	}
	h := NewAdminHandler(stub, SessionCookie{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/accounts/", nil), rec)

	if err := h.Accounts(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"next":null`) || !strings.Contains(rec.Body.String(), `"previous":null`) {
		t.Fatalf("expected null links: %s", rec.Body.String())
	}
}

func TestAdminHandler_Accounts_InvalidPage(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		listFn: func(ctx context.Context, page int) (*ports.AccountPage, error) {
			return pageOf(page, 20, 1, 0), nil
		},
	}
	h := NewAdminHandler(stub, SessionCookie{})

	for _, q := range []string{"abc", "0", "-1", "9"} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/accounts/?page="+q, nil), rec)
		if err := h.Accounts(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("page %q: expected 404, got %d", q, rec.Code)
		}
	}
}
