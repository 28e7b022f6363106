package foodrecipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/eko2okna/food-recipe-app/internal/blobstore"
)

type RouterParams struct {
	fx.In

	Admin   *AdminController
	Auth    AuthService
	Blobs   *blobstore.Store
	Config  *Config
	Dishes  DishController
	Logger  LoggerService
	Login   *AuthController
	Ratings *RatingController
}

func NewRouter(params RouterParams) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(params.Logger.Logger().Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: params.Config.CORS,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", AuthHeaderName, "Content-Type", AdminKeyHeaderName},
	}))
	router.Use(middleware.AllowContentType("application/json", "multipart/form-data"))
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("okay xD"))
	})

	uploads := "/" + blobstore.PublicPrefix + "/"
	router.Handle(uploads+"*", http.StripPrefix(uploads, http.FileServer(http.Dir(params.Blobs.Dir()))))

	router.Route("/api", func(r chi.Router) {
		r.Post("/login", params.Login.Login)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", params.Login.AdminLogin)
			r.With(params.Auth.UserRequired()).Get("/me", params.Login.AdminMe)

			r.Group(func(r chi.Router) {
				r.Use(params.Auth.AdminRequired())

				r.Get("/users", params.Admin.ListUsers)
				r.Post("/users", params.Admin.CreateUser)
				r.Delete("/users/{username}", params.Admin.DeleteUser)
				r.Put("/users/{username}/password", params.Admin.ResetPassword)
			})
		})

		r.Mount("/meals", params.Dishes.GetRouter())

		r.With(params.Auth.UserRequired()).Post("/ratings", params.Ratings.Rate)
	})

	return router
}

func NewServer(lc fx.Lifecycle, cfg *Config, router *chi.Mux, logger LoggerService) *http.Server {
	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: router}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}

			logger.Info("Starting HTTP server", "port", srv.Addr, "config", cfg.String())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server stopped", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server")

			return srv.Shutdown(ctx)
		},
	})

	return srv
}

func NewFxLogger(logger LoggerService) fxevent.Logger {
	fxLogger := fxevent.SlogLogger{Logger: logger.Logger()}

	fxLogger.UseLogLevel(slog.LevelDebug)
	fxLogger.UseErrorLevel(slog.LevelError)

	return &fxLogger
}

// SeedAdmin creates the administrator account on startup when ADMIN_PASSWORD is set.
func SeedAdmin(lc fx.Lifecycle, cfg *Config, users UserService, logger LoggerService) {
	if cfg.Auth.AdminPassword == "" {
		logger.Info("ADMIN_PASSWORD not set; skipping administrator seeding", "username", cfg.Auth.AdminUsername)
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return users.EnsureAdmin(ctx, cfg.Auth.AdminPassword)
		},
	})
}

func BuildServerOpts() []fx.Option {
	return []fx.Option{
		fx.Provide(NewRouter),
		fx.Provide(NewServer),
		fx.Provide(NewAuthController),
		fx.Provide(NewAdminController),
		fx.Provide(NewRatingController),
		fx.Provide(NewDishController),
		fx.Invoke(SeedAdmin),
		fx.Invoke(func(*http.Server) {}),
	}
}

func BuildAppOpts() []fx.Option {
	return []fx.Option{
		fx.WithLogger(NewFxLogger),
		fx.Provide(NewConfig),
		fx.Provide(NewLoggerService),
		fx.Supply(Models()),
		fx.Provide(NewDBService),
		fx.Provide(NewBlobStore),
		fx.Provide(NewBlobCleaner),
		fx.Provide(NewPasswordHasher),
		fx.Provide(NewCredentialStore),
		fx.Provide(NewUserService),
		fx.Provide(NewTokenService),
		fx.Provide(NewAuthService),
		fx.Provide(NewRatingService),
		fx.Provide(NewDishRepository),
		fx.Provide(NewDishService),
	}
}
