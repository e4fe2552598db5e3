// Package grpc exposes the account and session services as the
// authkeeper.v1.AuthService gRPC service.
package grpc

import (
	"context"
	"database/sql"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// SessionManager is the session lifecycle the handlers drive.
type SessionManager interface {
	Issue(ctx context.Context, db dbx.DBTX, userID string) (*models.TokenPair, error)
	Rotate(ctx context.Context, db dbx.DBTX, refreshToken string) (*models.TokenPair, error)
	Revoke(ctx context.Context, db dbx.DBTX, refreshToken string) error
	RevokeAll(ctx context.Context, db dbx.DBTX, userID string) (int64, error)
	Authenticate(ctx context.Context, db dbx.DBTX, email, secret string) (*models.User, error)
	ResolveBearer(ctx context.Context, db dbx.DBTX, accessToken string) (*models.User, error)
}

// AccountManager is the user CRUD the handlers drive.
type AccountManager interface {
	Register(ctx context.Context, db dbx.DBTX, in models.UserCreate) (*models.User, error)
	Get(ctx context.Context, db dbx.DBTX, id string) (*models.User, error)
	List(ctx context.Context, db dbx.DBTX, offset, limit int) ([]models.User, error)
	Update(ctx context.Context, db dbx.DBTX, id string, upd models.UserUpdate) (*models.User, error)
	UpdatePrivileged(ctx context.Context, db dbx.DBTX, id string, upd models.UserUpdate) (*models.User, error)
	SoftDelete(ctx context.Context, db dbx.DBTX, id string) error
	HardDelete(ctx context.Context, db dbx.DBTX, id string) error
}

// GRPCServer implements AuthServiceServer.
type GRPCServer struct {
	address  string
	db       *sql.DB
	sessions SessionManager
	users    AccountManager
	metrics  *metrics.Metrics
	logger   logging.Logger
}

var _ AuthServiceServer = (*GRPCServer)(nil)

// NewGRPCServer wires the handlers. m may be nil.
func NewGRPCServer(address string, db *sql.DB, sessions SessionManager, users AccountManager,
	m *metrics.Metrics, l logging.Logger) *GRPCServer {
	return &GRPCServer{
		address:  address,
		db:       db,
		sessions: sessions,
		users:    users,
		metrics:  m,
		logger:   l.With("module", "grpc_server"),
	}
}

// NewServer builds a grpc.Server with the interceptor chain and the
// service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.requestInterceptor, s.authInterceptor))
	srv := grpc.NewServer(opts...)
	RegisterAuthServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully when ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}
