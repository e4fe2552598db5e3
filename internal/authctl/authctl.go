// Package authctl implements the administrative command line: creating a
// superuser, applying migrations and pinging a running server.
package authctl

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/idgen"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
	"github.com/dmitrijs2005/authkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/server/storage"
)

const usage = `usage: authctl <command> [flags]

commands:
  createsuperuser [-email addr] [-name "Full Name"]   create a superuser, prompting for the password
  migrate                                            apply pending database migrations
  ping                                               call Ping on the configured gRPC endpoint

Server flags (-c, -D, -d, -a, ...) and AUTHKEEPER_* variables select the target.`

var ErrUsage = errors.New("invalid usage")

const pingTimeout = 5 * time.Second

// App runs one authctl command.
type App struct {
	in  *bufio.Reader
	out io.Writer
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{in: bufio.NewReader(in), out: out}
}

// Run executes args[0] with the remaining arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]

	cfg, err := config.Load(rest)
	if err != nil {
		return err
	}

	switch cmd {
	case "createsuperuser":
		return a.createSuperuser(ctx, cfg, rest)
	case "migrate":
		return a.migrate(ctx, cfg)
	case "ping":
		return a.ping(ctx, cfg)
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "unknown command %q\n%s\n", cmd, usage)
		return ErrUsage
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, *repomanager.SQLRepositoryManager, error) {
	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, storage.Options{})
	if err != nil {
		return nil, nil, err
	}
	rm, err := repomanager.NewSQLRepositoryManager(cfg.DatabaseDriver)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return db, rm, nil
}

func (a *App) migrate(ctx context.Context, cfg *config.Config) error {
	db, _, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintln(a.out, "migrations applied")
	return nil
}

func (a *App) createSuperuser(ctx context.Context, cfg *config.Config, args []string) error {
	var email, name string

	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&email, "email", "", "superuser email")
	fs.StringVar(&name, "name", "", "superuser full name")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "--email", "-name", "--name"})); err != nil {
		return err
	}

	var err error
	if email == "" {
		if email, err = GetSimpleText(a.in, "Email", a.out); err != nil {
			return err
		}
	}
	if name == "" {
		if name, err = GetSimpleText(a.in, "Full name (empty for "+cfg.SuperuserName+")", a.out); err != nil {
			return err
		}
		if name == "" {
			name = cfg.SuperuserName
		}
	}

	password, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	db, rm, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	hasher, err := passwords.New(cfg.PasswordAlgorithm)
	if err != nil {
		return err
	}
	codec, err := auth.NewCodec([]byte(cfg.SecretKey), cfg.SigningAlgorithm, cfg.AccessTokenTTL)
	if err != nil {
		return err
	}
	ids, err := idgen.NewSnowflake(cfg.SnowflakeNode)
	if err != nil {
		return err
	}
	sessions, err := services.NewSessionService(rm, codec, hasher, ids, cfg.RefreshTokenTTL)
	if err != nil {
		return err
	}
	users := services.NewUserService(rm, hasher, sessions)

	u, created, err := users.EnsureSuperuser(ctx, db, email, name, string(password))
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(a.out, "user %s already exists (id %s)\n", email, u.ID)
		return nil
	}
	fmt.Fprintf(a.out, "superuser %s created (id %s)\n", email, u.ID)
	return nil
}

func (a *App) ping(ctx context.Context, cfg *config.Config) error {
	conn, err := grpc.NewClient(cfg.EndpointAddrGRPC, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp, err := gs.NewClient(conn).Ping(ctx, &gs.PingRequest{})
	if err != nil {
		return fmt.Errorf("ping %s: %w", cfg.EndpointAddrGRPC, err)
	}
	fmt.Fprintln(a.out, resp.Status)
	return nil
}
