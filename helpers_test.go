package foodrecipe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eko2okna/food-recipe-app/internal/blobstore"
	"github.com/eko2okna/food-recipe-app/internal/passwd"
)

const (
	testSecret   = "test-secret"
	testAdminKey = "test-admin-key"
	testAdmin    = "igor"
)

type testEnv struct {
	cfg     *Config
	db      DBService
	blobs   *blobstore.Store
	cleaner *blobCleaner
	users   UserService
	tokens  *TokenService
	auth    AuthService
	ratings RatingService
	dishes  DishService
	router  *chi.Mux
}

var dsnUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func testConfig(t *testing.T) *Config {
	t.Helper()

	return &Config{
		Env:      "test",
		Port:     "0",
		LogLevel: "debug",
		CORS:     []string{"*"},
		Auth: AuthConfig{
			JWTSecret:     testSecret,
			AdminKey:      testAdminKey,
			AdminUsername: testAdmin,
			BcryptCost:    bcrypt.MinCost,
		},
		DB: DBConfig{
			Driver:       DriverSQLite,
			URL:          "file:" + dsnUnsafe.ReplaceAllString(t.Name(), "_") + "?mode=memory&cache=shared",
			MaxOpenConns: 1,
			QueryTimeout: 5 * time.Second,
		},
		Uploads: UploadConfig{
			Dir:      t.TempDir(),
			MaxBytes: 1 << 20,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	return newTestEnvWithConfig(t, testConfig(t))
}

func newTestEnvWithConfig(t *testing.T, cfg *Config) *testEnv {
	t.Helper()

	logger := newLoggerService(io.Discard, slog.LevelDebug)

	db, err := OpenDBService(cfg.DB, Models())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobs, err := blobstore.New(cfg.Uploads.Dir)
	require.NoError(t, err)

	cleaner := newBlobCleaner(blobs, logger)

	hasher, err := passwd.New(cfg.Auth.BcryptCost)
	require.NoError(t, err)

	credentials := NewCredentialStore(CredentialStoreParams{DB: db, Logger: logger})
	users := NewUserService(UserServiceParams{
		Config:      cfg,
		Credentials: credentials,
		Hasher:      hasher,
		Logger:      logger,
	})

	tokens, err := NewTokenService(TokenServiceParams{Config: cfg})
	require.NoError(t, err)

	authResult, err := NewAuthService(AuthServiceParams{
		Config:      cfg,
		Logger:      logger,
		Tokens:      tokens,
		UserService: users,
	})
	require.NoError(t, err)
	auth := authResult.AuthService

	ratings := NewRatingService(RatingServiceParams{DB: db, Logger: logger})
	dishes := NewDishService(DishServiceParams{
		Blobs:   blobs,
		Cleaner: cleaner,
		DB:      db,
		Logger:  logger,
		Repo:    NewDishRepository(db, logger),
	})

	router := NewRouter(RouterParams{
		Admin:  NewAdminController(AdminControllerParams{Auth: auth, Logger: logger, Users: users}),
		Auth:   auth,
		Blobs:  blobs,
		Config: cfg,
		Dishes: NewDishController(DishControllerParams{
			Auth:    auth,
			Config:  cfg,
			Dishes:  dishes,
			Logger:  logger,
			Ratings: ratings,
		}),
		Logger:  logger,
		Login:   NewAuthController(AuthControllerParams{Auth: auth, Logger: logger}),
		Ratings: NewRatingController(RatingControllerParams{Auth: auth, Logger: logger, Ratings: ratings}),
	})

	return &testEnv{
		cfg:     cfg,
		db:      db,
		blobs:   blobs,
		cleaner: cleaner,
		users:   users,
		tokens:  tokens,
		auth:    auth,
		ratings: ratings,
		dishes:  dishes,
		router:  router,
	}
}

func (e *testEnv) createUser(t *testing.T, username, password string) *User {
	t.Helper()

	user, err := e.users.CreateUser(context.Background(), username, password)
	require.NoError(t, err)

	return user
}

func (e *testEnv) tokenFor(t *testing.T, user *User) string {
	t.Helper()

	token, err := e.tokens.Issue(NewClaims(user, ""))
	require.NoError(t, err)

	return token
}

func (e *testEnv) createDish(t *testing.T, author *User, title string) *Dish {
	t.Helper()

	dish, err := e.dishes.CreateOne(context.Background(), author.ID, DishInput{Title: title, Recipe: "mix", Type: "main"})
	require.NoError(t, err)

	return dish
}

// do sends a JSON request through the router. body may be nil.
func (e *testEnv) do(t *testing.T, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{AuthHeaderName: "Bearer " + token}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())

	return out
}
