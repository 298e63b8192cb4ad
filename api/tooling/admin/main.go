// This program performs administrative tasks for the tenant auth service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/mail"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantauth/app/sdk/auth"
	"github.com/jcpaschoal/tenantauth/business/domain/authbus"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus"
	"github.com/jcpaschoal/tenantauth/business/domain/sessionbus/stores/sessiondb"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantauth/business/domain/tenantbus/stores/tenantdb"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus"
	"github.com/jcpaschoal/tenantauth/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/tenantauth/business/sdk/migrate"
	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config replicates the parts of the service config the commands need.
type Config struct {
	Auth struct {
		Secret     string        `envconfig:"AUTH_JWT_SECRET" required:"true"`
		Issuer     string        `envconfig:"AUTH_ISSUER" default:"tenantauth"`
		AccessTTL  time.Duration `envconfig:"AUTH_ACCESS_TTL" default:"15m"`
		RefreshTTL time.Duration `envconfig:"AUTH_REFRESH_TTL" default:"168h"`
	}
	Tenant struct {
		Secret string `envconfig:"TENANT_SECRET" required:"true"`
	}
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"tenantauth"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
}

type buses struct {
	tenant  *tenantbus.Core
	session *sessionbus.Core
	auth    *authbus.Core
}

func main() {
	log := logger.New(os.Stdout, logger.LevelInfo, "ADMIN", func(context.Context) string { return "" })
	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "admin", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	if len(os.Args) < 2 {
		usage()
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer db.Close()

	if os.Args[1] == "migrate" {
		return runMigrate(ctx, log, db)
	}

	b, err := newBuses(log, db, cfg)
	if err != nil {
		return err
	}

	switch os.Args[1] {
	case "create-tenant":
		return runCreateTenant(ctx, b, cfg.Tenant.Secret, os.Args[2:])
	case "delete-tenant":
		return runDeleteTenant(ctx, b, os.Args[2:])
	case "reap-sessions":
		return runReapSessions(ctx, b, cfg.Auth.RefreshTTL, os.Args[2:])
	default:
		usage()
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println("Commands: migrate, create-tenant, delete-tenant, reap-sessions")
}

// newBuses builds the business layer without the user cache so every
// command sees the database directly.
func newBuses(log *logger.Logger, db *sqlx.DB, cfg Config) (buses, error) {
	ath, err := auth.New(auth.Config{
		Log:        log,
		Secret:     cfg.Auth.Secret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return buses{}, fmt.Errorf("constructing auth: %w", err)
	}

	tenantBus := tenantbus.NewCore(log, tenantdb.NewStore(log, db), cfg.Tenant.Secret)
	userBus := userbus.NewCore(userdb.NewStore(log, db))
	sessionBus := sessionbus.NewCore(log, sessiondb.NewStore(log, db))

	b := buses{
		tenant:  tenantBus,
		session: sessionBus,
		auth:    authbus.NewCore(log, sqldb.NewBeginner(db), tenantBus, userBus, sessionBus, ath),
	}

	return b, nil
}

func runMigrate(ctx context.Context, log *logger.Logger, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := migrate.Migrate(ctx, log, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Println("migrations complete")
	return nil
}

func runCreateTenant(ctx context.Context, b buses, secret string, args []string) error {
	cmd := flag.NewFlagSet("create-tenant", flag.ExitOnError)
	nameStr := cmd.String("name", "", "Tenant name (Required)")
	emailStr := cmd.String("email", "", "Admin email (Required)")
	passStr := cmd.String("password", "", "Admin password (Required)")
	cmd.Parse(args)

	if *nameStr == "" || *emailStr == "" || *passStr == "" {
		cmd.PrintDefaults()
		return errors.New("missing required fields")
	}

	email, err := mail.ParseAddress(*emailStr)
	if err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	usr, err := b.auth.RegisterAdmin(ctx, authbus.RegisterAdmin{
		Name:     *nameStr,
		Email:    *email,
		Password: *passStr,
		Secret:   secret,
	})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Printf("\nSUCCESS: Tenant created!\nTenant: %s\nAdmin: %s\nEmail: %s\n", usr.TenantID, usr.ID, usr.Email.Address)
	return nil
}

func runDeleteTenant(ctx context.Context, b buses, args []string) error {
	cmd := flag.NewFlagSet("delete-tenant", flag.ExitOnError)
	idStr := cmd.String("id", "", "Tenant UUID (Required)")
	cmd.Parse(args)

	if *idStr == "" {
		cmd.PrintDefaults()
		return errors.New("missing tenant id")
	}

	tenantID, err := uuid.Parse(*idStr)
	if err != nil {
		return fmt.Errorf("invalid tenant uuid: %w", err)
	}

	if err := b.tenant.Delete(ctx, tenantID); err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}

	fmt.Printf("\nSUCCESS: Tenant %s deleted with its users and sessions\n", tenantID)
	return nil
}

func runReapSessions(ctx context.Context, b buses, refreshTTL time.Duration, args []string) error {
	cmd := flag.NewFlagSet("reap-sessions", flag.ExitOnError)
	olderThan := cmd.Duration("older-than", refreshTTL, "Delete sessions created before now minus this duration")
	cmd.Parse(args)

	if *olderThan <= 0 {
		return errors.New("older-than must be positive")
	}

	n, err := b.session.Reap(ctx, time.Now().Add(-*olderThan))
	if err != nil {
		return fmt.Errorf("reap sessions: %w", err)
	}

	fmt.Printf("\nSUCCESS: %d sessions removed\n", n)
	return nil
}
