package foodrecipe

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrDuplicateRecord    = errors.New("record already exists")
	ErrAccessDenied       = errors.New("access denied")
	ErrValidation         = errors.New("validation failed")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrResponse is the body rendered for every failed request.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	Message   string `json:"message"`
	ErrorText string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrResponse(err error, status int, message string) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		Message:        message,
		ErrorText:      http.StatusText(status),
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return newErrResponse(err, http.StatusBadRequest, err.Error())
}

func ErrUnauthorized(err error) render.Renderer {
	return newErrResponse(err, http.StatusUnauthorized, err.Error())
}

func ErrForbidden(err error) render.Renderer {
	return newErrResponse(err, http.StatusForbidden, err.Error())
}

func ErrConflict(err error) render.Renderer {
	return newErrResponse(err, http.StatusConflict, err.Error())
}

// ErrUnknown hides the underlying error from the client.
func ErrUnknown(err error) render.Renderer {
	return newErrResponse(err, http.StatusInternalServerError, "Server error")
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, Message: "Resource not found", ErrorText: http.StatusText(http.StatusNotFound)}

func errNotFoundWith(message string) render.Renderer {
	return newErrResponse(ErrRecordNotFound, http.StatusNotFound, message)
}

// ErrFromDomain maps service errors onto HTTP renderers.
func ErrFromDomain(err error) render.Renderer {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidRequest(err)
	case errors.Is(err, ErrMissingToken):
		return ErrUnauthorized(err)
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrInvalidToken):
		return ErrForbidden(err)
	case errors.Is(err, ErrRecordNotFound):
		return errNotFoundWith(err.Error())
	case errors.Is(err, ErrDuplicateRecord):
		return ErrConflict(err)
	default:
		return ErrUnknown(err)
	}
}

// MessageResponse is the body of successful mutations.
type MessageResponse struct {
	Message string `json:"message"`
	ID      uint   `json:"id,omitempty"`
}

func (m *MessageResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func newMessage(msg string) *MessageResponse {
	return &MessageResponse{Message: msg}
}

// renderDomainError renders err and logs it when it is a server-side failure.
func renderDomainError(w http.ResponseWriter, r *http.Request, logger LoggerService, msg string, err error) {
	resp := ErrFromDomain(err)
	if e, ok := resp.(*ErrResponse); ok && e.HTTPStatusCode >= http.StatusInternalServerError {
		logger.Error(msg, "error", err)
	}

	render.Render(w, r, resp)
}
