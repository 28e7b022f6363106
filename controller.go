package foodrecipe

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/fx"
)

type ResourceContextKey int

const dishContextKey ResourceContextKey = iota

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk.
const multipartMemory = 1 << 20

type DishRequestConstructor func(w http.ResponseWriter, r *http.Request) (DishInput, func(), error)

type DishController interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	ItemFromContext(ctx context.Context) (*Dish, error)
	ItemContextMiddleware(next http.Handler) http.Handler
	UserAccessMiddleware(next http.Handler) http.Handler

	GetRouter() *chi.Mux
}

type DishControllerParams struct {
	fx.In

	Auth    AuthService
	Config  *Config
	Dishes  DishService
	Logger  LoggerService
	Ratings RatingService
}

type controller struct {
	auth    AuthService
	logger  LoggerService
	svc     DishService
	ratings RatingService
	Router  *chi.Mux

	userAccessFunc     UserResourceAccessFunc[Dish]
	requestConstructor DishRequestConstructor
}

func NewDishController(params DishControllerParams) DishController {
	ctrl := &controller{
		auth:    params.Auth,
		logger:  params.Logger,
		svc:     params.Dishes,
		ratings: params.Ratings,

		userAccessFunc:     OwnerOnly[Dish],
		requestConstructor: dishInputFromRequest(params.Config.Uploads.MaxBytes),
	}

	ctrl.Router = chi.NewRouter()
	ctrl.Router.Use(params.Auth.UserRequired())

	ctrl.Router.Get("/", ctrl.List)
	ctrl.Router.Post("/", ctrl.Create)

	ctrl.Router.Route("/{id}", func(r chi.Router) {
		r.Use(ctrl.ItemContextMiddleware)
		r.Use(ctrl.UserAccessMiddleware)

		r.Put("/", ctrl.Update)
		r.Delete("/", ctrl.Delete)
	})

	return ctrl
}

func (c *controller) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := c.ratings.ListDishesWithRatings(ctx)
	if err != nil {
		c.logger.Error("failed to list dishes", "error", err)
		render.Render(w, r, ErrUnknown(err))

		return
	}

	respList := make([]render.Renderer, 0, len(views))
	for i := range views {
		respList = append(respList, &views[i])
	}

	render.RenderList(w, r, respList)
}

func (c *controller) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := c.auth.GetClaimsFromCtx(ctx)
	if err != nil {
		render.Render(w, r, ErrUnauthorized(err))
		return
	}

	input, cleanup, err := c.requestConstructor(w, r)
	if err != nil {
		render.Render(w, r, ErrFromDomain(err))
		return
	}
	defer cleanup()

	dish, err := c.svc.CreateOne(ctx, claims.UserID, input)
	if err != nil {
		renderDomainError(w, r, c.logger, "failed to create dish", err)
		return
	}

	render.Render(w, r, &MessageResponse{Message: "Added", ID: dish.ID})
}

func (c *controller) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// claims are already checked in UserAccessMiddleware so we can safely ignore the error
	claims, _ := c.auth.GetClaimsFromCtx(ctx)

	item, err := c.ItemFromContext(ctx)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	input, cleanup, err := c.requestConstructor(w, r)
	if err != nil {
		render.Render(w, r, ErrFromDomain(err))
		return
	}
	defer cleanup()

	if _, err := c.svc.UpdateOne(ctx, item, claims.UserID, input); err != nil {
		renderDomainError(w, r, c.logger, "failed to update dish", err)
		return
	}

	render.Render(w, r, newMessage("Dish updated"))
}

func (c *controller) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, _ := c.auth.GetClaimsFromCtx(ctx)

	item, err := c.ItemFromContext(ctx)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := c.svc.DeleteOne(ctx, item, claims.UserID); err != nil {
		renderDomainError(w, r, c.logger, "failed to delete dish", err)
		return
	}

	render.Render(w, r, newMessage("Dish deleted"))
}

func (c *controller) ItemFromContext(ctx context.Context) (*Dish, error) {
	item, ok := ctx.Value(dishContextKey).(*Dish)
	if !ok {
		return nil, fmt.Errorf("failed to get dish from context")
	}

	return item, nil
}

func (c *controller) ItemContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		itemID := chi.URLParam(r, "id")
		if itemID == "" {
			render.Render(w, r, ErrNotFound)
			return
		}

		itemIDInt, err := strconv.ParseUint(itemID, 10, 64)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(fmt.Errorf("failed to parse ID: %w", err)))
			return
		}

		item, err := c.svc.GetOne(ctx, uint(itemIDInt))
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				render.Render(w, r, errNotFoundWith("Dish not found"))
			} else {
				c.logger.Error("failed to look up dish", "error", err)
				render.Render(w, r, ErrUnknown(err))
			}

			return
		}

		ctxWithDish := context.WithValue(ctx, dishContextKey, item)

		next.ServeHTTP(w, r.WithContext(ctxWithDish))
	})
}

// UserAccessMiddleware rejects callers that may not mutate the dish before any body is read.
func (c *controller) UserAccessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, err := c.auth.GetClaimsFromCtx(ctx)
		if err != nil {
			render.Render(w, r, ErrUnauthorized(err))
			return
		}

		item, err := c.ItemFromContext(ctx)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}

		accessErr := c.userAccessFunc(claims, *item)
		if accessErr != nil {
			render.Render(w, r, ErrForbidden(ErrAccessDenied))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (c *controller) GetRouter() *chi.Mux {
	return c.Router
}

type dishRequest struct {
	Title  string `json:"title"`
	Recipe string `json:"recipe"`
	Type   string `json:"type"`
}

// dishInputFromRequest reads a JSON body or a multipart form with an optional "image" file.
func dishInputFromRequest(maxBytes int64) DishRequestConstructor {
	return func(w http.ResponseWriter, r *http.Request) (DishInput, func(), error) {
		noop := func() {}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType != "multipart/form-data" {
			var req dishRequest
			if err := render.DecodeJSON(r.Body, &req); err != nil {
				return DishInput{}, noop, fmt.Errorf("%w: invalid request body: %v", ErrValidation, err)
			}

			return DishInput{Title: req.Title, Recipe: req.Recipe, Type: req.Type}, noop, nil
		}

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return DishInput{}, noop, fmt.Errorf("%w: upload exceeds %d bytes", ErrValidation, maxBytes)
			}
			return DishInput{}, noop, fmt.Errorf("%w: invalid multipart form: %v", ErrValidation, err)
		}

		cleanup := func() { _ = r.MultipartForm.RemoveAll() }

		input := DishInput{
			Title:  r.FormValue("title"),
			Recipe: r.FormValue("recipe"),
			Type:   r.FormValue("type"),
		}

		file, header, err := r.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			cleanup()
			return DishInput{}, noop, fmt.Errorf("%w: invalid image: %v", ErrValidation, err)
		default:
			input.Image = &ImageUpload{Filename: header.Filename, Content: file}
			cleanup = func() {
				_ = file.Close()
				_ = r.MultipartForm.RemoveAll()
			}
		}

		return input, cleanup, nil
	}
}
