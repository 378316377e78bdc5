package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/platform-skeleton/internal/api/metrics"
	"github.com/99minutos/platform-skeleton/internal/core/domain"
	"github.com/99minutos/platform-skeleton/internal/core/ports"
)

// SessionCookie describes the cookie that carries the admin session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

// AdminHandler serves the administrative interface under /admin.
type AdminHandler struct {
	service ports.AccountService
	cookie  SessionCookie
	now     func() time.Time
}

func NewAdminHandler(service ports.AccountService, cookie SessionCookie) *AdminHandler {
	if cookie.Name == "" {
		cookie.Name = "sessionid"
	}
	return &AdminHandler{service: service, cookie: cookie, now: time.Now}
}

// --- Request / Response types ---

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *domain.Account `json:"account"`
}

type accountPageResponse struct {
	Count    int64             `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []*domain.Account `json:"results"`
}

// Login signs a staff account in.
//
// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /admin/login/ [post]
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	session, account, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AdminLoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		metrics.AdminLoginsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.AdminLoginsTotal.WithLabelValues("success").Inc()

	c.SetCookie(h.sessionCookie(session.Token, session.ExpiresAt))
	return c.JSON(http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Account:   account,
	})
}

// Logout revokes the current session.
//
// @Summary      Admin logout
// @Tags         admin
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /admin/logout/ [post]
func (h *AdminHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	if err := h.service.Logout(c.Request().Context(), *claims); err != nil {
		return err
	}
	metrics.AdminLogoutsTotal.Inc()

	c.SetCookie(h.sessionCookie("", time.Unix(0, 0)))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in account.
//
// @Summary      Current admin account
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Account
// @Failure      401  {object}  map[string]string
// @Router       /admin/ [get]
func (h *AdminHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	account, err := h.service.Current(c.Request().Context(), claims.Username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "account no longer exists"})
		}
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// Accounts lists accounts one page at a time.
//
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page number (1-based)"
// @Success      200   {object}  accountPageResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /admin/accounts/ [get]
func (h *AdminHandler) Accounts(c echo.Context) error {
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "invalid page"})
		}
		page = n
	}

	result, err := h.service.List(c.Request().Context(), page)
	if err != nil {
		return err
	}
	if page > 1 && len(result.Results) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "invalid page"})
	}

	resp := accountPageResponse{
		Count:   result.Count,
		Results: result.Results,
	}
	if resp.Results == nil {
		resp.Results = []*domain.Account{}
	}
	if result.HasNext() {
		next := pageURL(c, result.Page+1)
		resp.Next = &next
	}
	if result.HasPrevious() {
		prev := pageURL(c, result.Page-1)
		resp.Previous = &prev
	}
	return c.JSON(http.StatusOK, resp)
}

// pageURL rebuilds the request URL pointing at page. The first page drops
// the parameter.
func pageURL(c echo.Context, page int) string {
	req := c.Request()
	q := req.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (h *AdminHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	maxAge := int(expires.Sub(h.now()).Seconds())
	if value == "" || maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
