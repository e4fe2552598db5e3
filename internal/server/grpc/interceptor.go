package grpc

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/idgen"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type ctxKey string

const (
	userKey      ctxKey = "user"
	requestIDKey ctxKey = "requestID"
)

const maxRequestIDLen = 64

// access is the gate a method sits behind.
type access int

const (
	accessPublic    access = iota
	accessVerified         // any verified user
	accessActive           // verified and active
	accessSuperuser        // verified superuser
)

var methodAccess = map[string]access{
	FullMethod(MethodRegister):         accessPublic,
	FullMethod(MethodLogin):            accessPublic,
	FullMethod(MethodRefresh):          accessPublic,
	FullMethod(MethodPing):             accessPublic,
	FullMethod(MethodLogout):           accessActive,
	FullMethod(MethodGetMe):            accessActive,
	FullMethod(MethodAbortAllSessions): accessVerified,
	FullMethod(MethodUpdateMe):         accessVerified,
	FullMethod(MethodDeleteMe):         accessVerified,
	FullMethod(MethodListUsers):        accessSuperuser,
	FullMethod(MethodGetUser):          accessSuperuser,
	FullMethod(MethodUpdateUser):       accessSuperuser,
	FullMethod(MethodDeleteUser):       accessSuperuser,
}

func accessFor(method string) access {
	if a, ok := methodAccess[method]; ok {
		return a
	}
	return accessVerified
}

// UserFromContext returns the caller resolved by the auth interceptor.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// RequestIDFromContext returns the id assigned by the request interceptor.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func firstMD(ctx context.Context, keys ...string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, k := range keys {
		if v := md.Get(k); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return ""
}

// requestInterceptor assigns a request id, echoes it in the response header,
// recovers panics, logs the call and records metrics.
func (s *GRPCServer) requestInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	start := time.Now()

	requestID := firstMD(ctx, common.RequestIDHeaderName)
	if requestID == "" || len(requestID) > maxRequestIDLen {
		requestID = idgen.NewRequestID()
	}
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, requestID))

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "panic in handler", "method", info.FullMethod, "panic", r, "request_id", requestID)
			resp, err = nil, status.Error(codes.Internal, "internal error")
		}

		code := status.Code(err)
		elapsed := time.Since(start)
		s.metrics.ObserveRPC(info.FullMethod, code.String(), elapsed)
		s.logger.Info(ctx, "rpc",
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", elapsed.Milliseconds(),
			"request_id", requestID,
		)
	}()

	return handler(ctx, req)
}

// authInterceptor resolves the bearer token of non-public methods and
// applies the method's gate.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	gate := accessFor(info.FullMethod)
	if gate == accessPublic {
		return handler(ctx, req)
	}

	token := firstMD(ctx, common.AuthorizationHeaderName, common.AccessTokenHeaderName)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	user, err := s.sessions.ResolveBearer(ctx, s.db, strings.TrimSpace(token))
	if err != nil {
		return nil, s.statusError(ctx, "resolve bearer", err)
	}

	if !user.IsVerified {
		return nil, status.Error(codes.PermissionDenied, "verify email")
	}
	if gate == accessActive && !user.IsActive {
		return nil, status.Error(codes.PermissionDenied, "user is not active")
	}
	if gate == accessSuperuser && !user.IsSuperuser {
		return nil, status.Error(codes.PermissionDenied, "not enough privileges")
	}

	return handler(context.WithValue(ctx, userKey, user), req)
}
