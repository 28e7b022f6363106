package foodrecipe

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/fx"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *createUserRequest) Bind(r *http.Request) error {
	return nil
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (p *resetPasswordRequest) Bind(r *http.Request) error {
	return nil
}

type AdminControllerParams struct {
	fx.In

	Auth   AuthService
	Logger LoggerService
	Users  UserService
}

// AdminController manages user accounts. Every route sits behind AdminRequired.
type AdminController struct {
	auth   AuthService
	logger LoggerService
	users  UserService
}

func NewAdminController(params AdminControllerParams) *AdminController {
	return &AdminController{
		auth:   params.Auth,
		logger: params.Logger,
		users:  params.Users,
	}
}

func (c *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.users.ListUsers(r.Context())
	if err != nil {
		renderDomainError(w, r, c.logger, "failed to list users", err)
		return
	}

	respList := make([]render.Renderer, 0, len(users))
	for _, u := range users {
		respList = append(respList, u.ToDTO())
	}

	render.RenderList(w, r, respList)
}

func (c *AdminController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	user, err := c.users.CreateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		renderDomainError(w, r, c.logger, "failed to add user", err)
		return
	}

	c.logAction(r, "user added", user.Username)
	render.Render(w, r, &MessageResponse{Message: "User added", ID: user.ID})
}

func (c *AdminController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := c.users.DeleteUser(r.Context(), username); err != nil {
		renderDomainError(w, r, c.logger, "failed to delete user", err)
		return
	}

	c.logAction(r, "user deleted", username)
	render.Render(w, r, newMessage("User deleted"))
}

func (c *AdminController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req resetPasswordRequest
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := c.users.ResetPassword(r.Context(), username, req.NewPassword); err != nil {
		renderDomainError(w, r, c.logger, "failed to change password", err)
		return
	}

	c.logAction(r, "password updated", username)
	render.Render(w, r, newMessage("Password updated"))
}

func (c *AdminController) logAction(r *http.Request, action, username string) {
	admission, _ := c.auth.GetAdmissionFromCtx(r.Context())
	c.logger.Info("Admin action", "action", action, "username", username, "admission", admission.Method.String(), "admin", admission.Username)
}
