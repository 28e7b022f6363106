package foodrecipe

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBService interface {
	CreateOne(ctx context.Context, record interface{}) error
	UpdateOne(ctx context.Context, model interface{}, recordID uint, updates map[string]interface{}) error
	FindOne(ctx context.Context, result interface{}, query interface{}, args ...interface{}) error
	FindMany(ctx context.Context, result interface{}, order string, query interface{}, args ...interface{}) error

	// Transaction runs fn on a single pooled connection and commits when fn returns nil.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	GetSession(ctx context.Context) (*gorm.DB, context.CancelFunc)
	Migrate(ctx context.Context) error
	DropAll(ctx context.Context) error
	Close() error
}

type DBServiceParams struct {
	fx.In

	Config    *Config
	Lifecycle fx.Lifecycle
	Logger    LoggerService
	Models    ModelList
}

type DbServiceResult struct {
	fx.Out

	DBService DBService
}

type dbService struct {
	cfg DBConfig
	db  *gorm.DB

	models []interface{}
}

func NewDBService(params DBServiceParams) (DbServiceResult, error) {
	srv, err := OpenDBService(params.Config.DB, params.Models)
	if err != nil {
		return DbServiceResult{}, err
	}

	params.Logger.Info("Database ready", "driver", params.Config.DB.Driver, "maxOpenConns", params.Config.DB.MaxOpenConns)

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing database")
			return srv.Close()
		},
	})

	return DbServiceResult{DBService: srv}, nil
}

// OpenDBService connects, sizes the connection pool and migrates the given models.
func OpenDBService(cfg DBConfig, models ModelList) (DBService, error) {
	srv := &dbService{
		cfg:    cfg,
		models: models,
	}

	if err := srv.Init(); err != nil {
		return nil, err
	}

	return srv, nil
}

func dialector(cfg DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		}), nil
	case DriverSQLite:
		return sqlite.Open(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (srv *dbService) Init() error {
	dial, err := dialector(srv.cfg)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetMaxOpenConns(srv.cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(srv.cfg.MaxOpenConns)

	srv.db = db

	err = srv.Migrate(context.Background())
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("migrate failed: %w", err)
	}

	return nil
}

func (srv *dbService) CreateOne(ctx context.Context, record interface{}) error {
	sesh, cancel := srv.GetSession(ctx)
	defer cancel()

	createResult := sesh.Create(record)
	if createResult.Error != nil {
		if errors.Is(createResult.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRecord
		}

		return fmt.Errorf("create one failed: %w", createResult.Error)
	}

	return nil
}

func (srv *dbService) UpdateOne(ctx context.Context, model interface{}, recordID uint, updates map[string]interface{}) error {
	sesh, cancel := srv.GetSession(ctx)
	defer cancel()

	updateResult := sesh.
		Model(model).
		Where("id = ?", recordID).
		Updates(updates)

	if updateResult.Error != nil {
		return fmt.Errorf("update one failed: %w", updateResult.Error)
	}

	if updateResult.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (srv *dbService) FindOne(
	ctx context.Context,
	result interface{},
	query interface{},
	args ...interface{},
) error {
	sesh, cancel := srv.GetSession(ctx)
	defer cancel()

	if query != nil {
		sesh = sesh.Where(query, args...)
	}

	queryResult := sesh.First(result)
	if queryResult.Error != nil {
		if errors.Is(queryResult.Error, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}

		return fmt.Errorf("find one failed: %w", queryResult.Error)
	}

	return nil
}

func (srv *dbService) FindMany(
	ctx context.Context,
	result interface{},
	order string,
	query interface{},
	args ...interface{},
) error {
	sesh, cancel := srv.GetSession(ctx)
	defer cancel()

	if query != nil {
		sesh = sesh.Where(query, args...)
	}

	if order != "" {
		sesh = sesh.Order(order)
	}

	queryResult := sesh.Find(result)
	if queryResult.Error != nil {
		return fmt.Errorf("find many failed: %w", queryResult.Error)
	}

	return nil
}

func (srv *dbService) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	sesh, cancel := srv.GetSession(ctx)
	defer cancel()

	return sesh.Transaction(fn)
}

func (srv *dbService) Migrate(ctx context.Context) error {
	for _, model := range srv.models {
		if err := srv.db.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate failed for model %T: %w", model, err)
		}
	}

	return nil
}

func (srv *dbService) DropAll(ctx context.Context) error {
	sesh, cancel := srv.GetSession(ctx)
	defer cancel()

	for _, model := range srv.models {
		err := sesh.Migrator().DropTable(model)
		if err != nil {
			return fmt.Errorf("drop all failed: %w", err)
		}
	}

	return nil
}

// GetSession returns a session bound to ctx and the configured query timeout.
func (srv *dbService) GetSession(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if srv.cfg.QueryTimeout <= 0 {
		cancelCtx, cancel := context.WithCancel(ctx)
		return srv.db.Session(&gorm.Session{Context: cancelCtx}), cancel
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, srv.cfg.QueryTimeout)

	return srv.db.Session(&gorm.Session{
		Context: timeoutCtx,
	}), cancel
}

func (srv *dbService) Close() error {
	sqlDB, err := srv.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
