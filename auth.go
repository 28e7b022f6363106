package foodrecipe

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"go.uber.org/fx"
)

type authContextkey int

const (
	AuthHeaderName     = "Authorization"
	AdminKeyHeaderName = "X-Admin-Key"
)

const (
	claimsContextKey authContextkey = iota
	admissionContextKey
)

// AdmissionMethod is the path through which the admin guard let a request in.
type AdmissionMethod int

const (
	AdmissionStaticKey AdmissionMethod = iota + 1
	AdmissionClaimToken
)

func (m AdmissionMethod) String() string {
	switch m {
	case AdmissionStaticKey:
		return "static-key"
	case AdmissionClaimToken:
		return "claim-token"
	default:
		return "none"
	}
}

// Admission records how an admin request was admitted. Username is only set for AdmissionClaimToken.
type Admission struct {
	Method   AdmissionMethod
	Username string
}

type AuthService interface {
	UserRequired() func(http.Handler) http.Handler
	AdminRequired() func(http.Handler) http.Handler
	GetClaimsFromCtx(ctx context.Context) (*Claims, error)
	GetAdmissionFromCtx(ctx context.Context) (Admission, bool)
	LoginUser(ctx context.Context, username, password string) (string, error)
	LoginAdmin(ctx context.Context, username, password string) (string, error)
	IsAdmin(username string) bool
}

type AuthServiceParams struct {
	fx.In

	Config      *Config
	Logger      LoggerService
	Tokens      *TokenService
	UserService UserService
}

type AuthServiceResult struct {
	fx.Out

	AuthService AuthService
}

type authService struct {
	adminKey    []byte
	logger      LoggerService
	tokens      *TokenService
	userService UserService
}

func NewAuthService(params AuthServiceParams) (AuthServiceResult, error) {
	var result AuthServiceResult

	if params.Config.Auth.AdminKey == "" {
		params.Logger.Warn("ADMIN_KEY is empty; static admin key admission disabled")
	}

	result.AuthService = &authService{
		adminKey:    []byte(params.Config.Auth.AdminKey),
		logger:      params.Logger,
		tokens:      params.Tokens,
		userService: params.UserService,
	}

	return result, nil
}

func (svc *authService) UserRequired() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := svc.claimsFromRequest(r)
			if err != nil {
				if errors.Is(err, ErrMissingToken) {
					render.Render(w, r, ErrUnauthorized(err))
				} else {
					render.Render(w, r, ErrForbidden(err))
				}
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminRequired admits a request by static key first, then by an admin user token.
func (svc *authService) AdminRequired() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			admission, claims, err := svc.admit(r)
			if err != nil {
				render.Render(w, r, ErrForbidden(fmt.Errorf("access to admin panel denied")))
				return
			}

			ctx = context.WithValue(ctx, admissionContextKey, admission)
			if claims != nil {
				ctx = context.WithValue(ctx, claimsContextKey, claims)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (svc *authService) admit(r *http.Request) (Admission, *Claims, error) {
	if key := r.Header.Get(AdminKeyHeaderName); key != "" {
		if svc.adminKeyMatches(key) {
			svc.logger.Info("Admin request admitted by static key", "path", r.URL.Path)
			return Admission{Method: AdmissionStaticKey}, nil, nil
		}
		svc.logger.Warn("Admin key rejected", "path", r.URL.Path)
	}

	claims, err := svc.claimsFromRequest(r)
	if err != nil {
		svc.logger.Warn("Admin token rejected", "path", r.URL.Path, "error", err)
		return Admission{}, nil, err
	}

	if !svc.IsAdmin(claims.Username) {
		svc.logger.Warn("Admin token belongs to non-admin user", "path", r.URL.Path, "username", claims.Username)
		return Admission{}, nil, fmt.Errorf("%w: user %q is not an admin", ErrAccessDenied, claims.Username)
	}

	return Admission{Method: AdmissionClaimToken, Username: claims.Username}, claims, nil
}

func (svc *authService) adminKeyMatches(key string) bool {
	if len(svc.adminKey) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), svc.adminKey) == 1
}

func (svc *authService) GetClaimsFromCtx(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	if !ok {
		return nil, fmt.Errorf("could not get claims from context")
	}

	return claims, nil
}

func (svc *authService) GetAdmissionFromCtx(ctx context.Context) (Admission, bool) {
	admission, ok := ctx.Value(admissionContextKey).(Admission)
	return admission, ok
}

func (svc *authService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := svc.userService.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := svc.tokens.Issue(NewClaims(user, ""))
	if err != nil {
		return "", fmt.Errorf("failed to generate user token: %w", err)
	}

	return token, nil
}

func (svc *authService) LoginAdmin(ctx context.Context, username, password string) (string, error) {
	user, err := svc.userService.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	if !svc.IsAdmin(user.Username) {
		return "", fmt.Errorf("%w: user %q is not an admin", ErrAccessDenied, user.Username)
	}

	token, err := svc.tokens.Issue(NewClaims(user, RoleAdmin))
	if err != nil {
		return "", fmt.Errorf("failed to generate admin token: %w", err)
	}

	return token, nil
}

func (svc *authService) IsAdmin(username string) bool {
	return svc.userService.IsAdmin(username)
}

func (svc *authService) claimsFromRequest(r *http.Request) (*Claims, error) {
	tokenString, err := svc.getTokenStringFromAuthHeader(r)
	if err != nil {
		return nil, err
	}

	return svc.tokens.Verify(tokenString)
}

func (svc *authService) getTokenStringFromAuthHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get(AuthHeaderName)

	scheme, token, found := strings.Cut(strings.TrimSpace(authHeader), " ")
	if authHeader == "" || !found || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: missing bearer token", ErrMissingToken)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrMissingToken)
	}

	return token, nil
}
