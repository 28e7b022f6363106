package foodrecipe

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/fx"
)

type rateRequest struct {
	DishID uint        `json:"dish_id"`
	Rating json.Number `json:"rating"`
}

func (rr *rateRequest) Bind(r *http.Request) error {
	if rr.DishID == 0 {
		return fmt.Errorf("missing dish ID")
	}
	return nil
}

type RatingControllerParams struct {
	fx.In

	Auth    AuthService
	Logger  LoggerService
	Ratings RatingService
}

type RatingController struct {
	auth    AuthService
	logger  LoggerService
	ratings RatingService
}

func NewRatingController(params RatingControllerParams) *RatingController {
	return &RatingController{
		auth:    params.Auth,
		logger:  params.Logger,
		ratings: params.Ratings,
	}
}

// Rate must be mounted behind UserRequired.
func (c *RatingController) Rate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := c.auth.GetClaimsFromCtx(ctx)
	if err != nil {
		render.Render(w, r, ErrUnauthorized(err))
		return
	}

	var req rateRequest
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	rating, err := ParseRating(req.Rating)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := c.ratings.SubmitRating(ctx, claims.UserID, req.DishID, rating); err != nil {
		renderDomainError(w, r, c.logger, "failed to submit rating", err)
		return
	}

	render.Render(w, r, newMessage("Rated"))
}
