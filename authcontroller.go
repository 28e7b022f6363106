package foodrecipe

import (
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/fx"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (l *loginRequest) Bind(r *http.Request) error {
	return nil
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (t *TokenResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type AdminSessionResponse struct {
	OK       bool   `json:"ok"`
	Username string `json:"username"`
}

func (a *AdminSessionResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type AuthControllerParams struct {
	fx.In

	Auth   AuthService
	Logger LoggerService
}

// AuthController serves the login endpoints and the admin session check.
type AuthController struct {
	auth   AuthService
	logger LoggerService
}

func NewAuthController(params AuthControllerParams) *AuthController {
	return &AuthController{auth: params.Auth, logger: params.Logger}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	token, err := c.auth.LoginUser(r.Context(), req.Username, req.Password)
	if err != nil {
		renderDomainError(w, r, c.logger, "failed to log in", err)
		return
	}

	render.Render(w, r, &TokenResponse{Token: token})
}

func (c *AuthController) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	token, err := c.auth.LoginAdmin(r.Context(), req.Username, req.Password)
	if err != nil {
		renderDomainError(w, r, c.logger, "failed to log in admin", err)
		return
	}

	render.Render(w, r, &TokenResponse{Token: token})
}

// AdminMe must be mounted behind UserRequired.
func (c *AuthController) AdminMe(w http.ResponseWriter, r *http.Request) {
	claims, err := c.auth.GetClaimsFromCtx(r.Context())
	if err != nil {
		render.Render(w, r, ErrUnauthorized(err))
		return
	}

	if !c.auth.IsAdmin(claims.Username) {
		render.Render(w, r, ErrForbidden(ErrAccessDenied))
		return
	}

	render.Render(w, r, &AdminSessionResponse{OK: true, Username: claims.Username})
}
