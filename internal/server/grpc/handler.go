package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

func (s *GRPCServer) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// setTokens hands the pair to the client as response header metadata. Empty
// values tell the client to forget its tokens.
func setTokens(ctx context.Context, access, refresh string) {
	_ = grpc.SetHeader(ctx, metadata.Pairs(
		common.AccessTokenHeaderName, access,
		common.RefreshTokenHeaderName, refresh,
	))
}

func refreshTokenOf(ctx context.Context, fromRequest string) string {
	if fromRequest != "" {
		return fromRequest
	}
	return firstMD(ctx, common.RefreshTokenHeaderName)
}

func (s *GRPCServer) currentUser(ctx context.Context) (*models.User, error) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return u, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	var user *models.User
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.users.Register(ctx, tx, models.UserCreate{
			Email:    req.Email,
			FullName: req.FullName,
			Password: req.Password,
		})
		return err
	})
	if err != nil {
		return nil, s.statusError(ctx, "register", err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return toUserResponse(user), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	var pair *models.TokenPair
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.sessions.Authenticate(ctx, tx, req.Username, req.Password)
		if err != nil {
			return err
		}
		pair, err = s.sessions.Issue(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.metrics.SessionEvent(metrics.LoginFailed)
		}
		return nil, s.statusError(ctx, "login", err)
	}

	s.metrics.SessionEvent(metrics.LoginSucceeded)
	s.metrics.SessionEvent(metrics.SessionIssued)
	setTokens(ctx, pair.AccessToken, pair.RefreshToken)
	return toTokenResponse(pair), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *RefreshRequest) (*TokenResponse, error) {
	token := refreshTokenOf(ctx, req.RefreshToken)

	var pair *models.TokenPair
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		pair, err = s.sessions.Rotate(ctx, tx, token)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			s.metrics.SessionEvent(metrics.SessionExpired)
		case errors.Is(err, common.ErrInvalidToken):
			s.metrics.SessionEvent(metrics.SessionInvalid)
		}
		return nil, s.statusError(ctx, "refresh", err)
	}

	s.metrics.SessionEvent(metrics.SessionRotated)
	setTokens(ctx, pair.AccessToken, pair.RefreshToken)
	return toTokenResponse(pair), nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *LogoutRequest) (*MessageResponse, error) {
	if _, err := s.currentUser(ctx); err != nil {
		return nil, err
	}
	token := refreshTokenOf(ctx, req.RefreshToken)

	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.sessions.Revoke(ctx, tx, token)
	})
	if err != nil {
		return nil, s.statusError(ctx, "logout", err)
	}

	s.metrics.SessionEvent(metrics.SessionRevoked)
	setTokens(ctx, "", "")
	return &MessageResponse{Message: "Logged out successfully"}, nil
}

func (s *GRPCServer) AbortAllSessions(ctx context.Context, _ *AbortAllSessionsRequest) (*AbortAllSessionsResponse, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	var n int64
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = s.sessions.RevokeAll(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, s.statusError(ctx, "abort sessions", err)
	}

	s.metrics.SessionEvent(metrics.SessionRevoked)
	setTokens(ctx, "", "")
	return &AbortAllSessionsResponse{Message: "All sessions were aborted", Revoked: n}, nil
}

func (s *GRPCServer) GetMe(ctx context.Context, _ *GetMeRequest) (*UserResponse, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *GRPCServer) UpdateMe(ctx context.Context, req *UpdateMeRequest) (*UserResponse, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.User
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		updated, err = s.users.Update(ctx, tx, user.ID, models.UserUpdate{
			Email:    req.Email,
			FullName: req.FullName,
			Password: req.Password,
		})
		return err
	})
	if err != nil {
		return nil, s.statusError(ctx, "update me", err)
	}
	return toUserResponse(updated), nil
}

func (s *GRPCServer) DeleteMe(ctx context.Context, req *DeleteMeRequest) (*MessageResponse, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	token := refreshTokenOf(ctx, req.RefreshToken)

	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.sessions.Revoke(ctx, tx, token); err != nil {
			return err
		}
		return s.users.SoftDelete(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, s.statusError(ctx, "delete me", err)
	}

	setTokens(ctx, "", "")
	return &MessageResponse{Message: "User deactivated"}, nil
}

func (s *GRPCServer) ListUsers(ctx context.Context, req *ListUsersRequest) (*ListUsersResponse, error) {
	var list []models.User
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = s.users.List(ctx, tx, req.Offset, req.Limit)
		return err
	})
	if err != nil {
		return nil, s.statusError(ctx, "list users", err)
	}

	resp := &ListUsersResponse{Users: make([]*UserResponse, 0, len(list))}
	for i := range list {
		resp.Users = append(resp.Users, toUserResponse(&list[i]))
	}
	return resp, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *GetUserRequest) (*UserResponse, error) {
	var user *models.User
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.users.Get(ctx, tx, req.ID)
		return err
	})
	if err != nil {
		return nil, s.statusError(ctx, "get user", err)
	}
	return toUserResponse(user), nil
}

func (s *GRPCServer) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*UserResponse, error) {
	var user *models.User
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.users.UpdatePrivileged(ctx, tx, req.ID, models.UserUpdate{
			Email:       req.Email,
			FullName:    req.FullName,
			Password:    req.Password,
			IsActive:    req.IsActive,
			IsVerified:  req.IsVerified,
			IsSuperuser: req.IsSuperuser,
		})
		return err
	})
	if err != nil {
		return nil, s.statusError(ctx, "update user", err)
	}
	return toUserResponse(user), nil
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *DeleteUserRequest) (*MessageResponse, error) {
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.users.HardDelete(ctx, tx, req.ID)
	})
	if err != nil {
		return nil, s.statusError(ctx, "delete user", err)
	}
	return &MessageResponse{Message: "User was deleted"}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *PingRequest) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}
