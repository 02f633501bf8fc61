package routes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/todo-team/todolist/internal/auth"
	"github.com/todo-team/todolist/internal/config"
	"github.com/todo-team/todolist/internal/identity"
	"github.com/todo-team/todolist/internal/middleware"
	"github.com/todo-team/todolist/internal/notification"
	"github.com/todo-team/todolist/internal/otp"
	"github.com/todo-team/todolist/internal/todo"
)

const adminOnlyMessage = "Access denied: Admins only"

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Mongo    *mongo.Database
	Cache    *redis.Client
	Logger   *slog.Logger
	Notifier notification.Notifier
	// Clock overrides time.Now for the auth flow. Tests only.
	Clock func() time.Time
}

type repositories struct {
	users identity.Repository
	todos todo.Repository
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	repos, err := newRepositories(d)
	if err != nil {
		return err
	}

	app.Use(recover.New())
	if d.Cfg.CORSOrigins != "" {
		// Credentials are allowed so browsers send the refresh cookie.
		app.Use(cors.New(cors.Config{
			AllowOrigins:     d.Cfg.CORSOrigins,
			AllowCredentials: true,
			AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
			ExposeHeaders:    "X-Request-ID",
		}))
	}
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	RegisterDocsRoutes(app)

	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}
	now := d.Clock
	if now == nil {
		now = time.Now
	}

	issuer := otp.NewIssuer(d.Cfg.Auth.OTPTTL, otp.WithClock(now))
	identitySvc := identity.NewService(repos.users, issuer, notifier, d.Logger, identity.WithClock(now))
	authSvc := auth.NewService(d.Cfg.Auth, identitySvc, d.Logger, auth.WithClock(now))
	todoSvc := todo.NewService(repos.todos)

	jwtmw := middleware.JWTAuth(func(token string) (middleware.Principal, error) {
		claims, err := authSvc.ParseAccess(token)
		if err != nil {
			return middleware.Principal{}, err
		}
		return middleware.Principal{UserID: claims.UserID, Role: claims.Role}, nil
	})

	if d.Cfg.Admin.Email != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := identitySvc.EnsureAdmin(ctx, d.Cfg.Admin.Email, d.Cfg.Admin.Password); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	identityHandler := identity.NewHandler(identitySvc)
	users := app.Group("/service/user")
	RegisterAuthRoutes(users, auth.NewHandler(authSvc, d.Cfg.Auth.RefreshCookiePath, !config.IsDev(d.Cfg.AppEnv)),
		identityHandler,
		AuthLimiters{
			SignIn:    middleware.RateLimit(d.Cache, "signin", d.Cfg.LoginRateLimit),
			VerifyOTP: middleware.RateLimit(d.Cache, "verify-otp", d.Cfg.LoginRateLimit),
			ResendOTP: middleware.RateLimit(d.Cache, "resend-otp", d.Cfg.LoginRateLimit),
		},
	)
	// Idempotency runs after JWTAuth so stored responses are scoped per caller.
	idempotency := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	RegisterIdentityRoutes(users, identityHandler, jwtmw, idempotency)
	RegisterTodoRoutes(app.Group("/service/todo", jwtmw, idempotency), todo.NewHandler(todoSvc))

	return nil
}

// newRepositories picks the store named by the configuration. Mongo
// collections get their indexes here.
func newRepositories(d Deps) (repositories, error) {
	switch d.Cfg.StoreDriver {
	case config.StorePostgres:
		if d.DB == nil {
			return repositories{}, fmt.Errorf("postgres pool is required for STORE_DRIVER=%s", d.Cfg.StoreDriver)
		}
		return repositories{
			users: identity.NewPostgresRepository(d.DB),
			todos: todo.NewPostgresRepository(d.DB),
		}, nil
	case config.StoreMongo:
		if d.Mongo == nil {
			return repositories{}, fmt.Errorf("mongo database is required for STORE_DRIVER=%s", d.Cfg.StoreDriver)
		}
		users := identity.NewMongoRepository(d.Mongo)
		todos := todo.NewMongoRepository(d.Mongo)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := users.EnsureIndexes(ctx); err != nil {
			return repositories{}, fmt.Errorf("ensure user indexes: %w", err)
		}
		if err := todos.EnsureIndexes(ctx); err != nil {
			return repositories{}, fmt.Errorf("ensure todo indexes: %w", err)
		}
		return repositories{users: users, todos: todos}, nil
	case config.StoreMemory, "":
		if !config.IsDev(d.Cfg.AppEnv) {
			return repositories{}, fmt.Errorf("memory store is not allowed when APP_ENV=%s", d.Cfg.AppEnv)
		}
		return repositories{users: identity.NewMemoryRepository(), todos: todo.NewMemoryRepository()}, nil
	default:
		return repositories{}, fmt.Errorf("unknown store driver %q", d.Cfg.StoreDriver)
	}
}
