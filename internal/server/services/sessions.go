// Package services contains server-side business logic. Every operation
// takes the dbx.DBTX to run on; the caller owns the transaction scope.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/idgen"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// TokenCodec issues and decodes access tokens.
type TokenCodec interface {
	Issue(userID string, now time.Time) (string, error)
	Decode(token string) (string, error)
}

// IDGenerator yields unique session row IDs.
type IDGenerator interface {
	Next() int64
}

// SessionService implements the refresh-session lifecycle: issue, rotate,
// revoke and credential checks.
type SessionService struct {
	repomanager repomanager.RepositoryManager
	codec       TokenCodec
	hasher      passwords.Hasher
	ids         IDGenerator
	refreshTTL  time.Duration
	now         func() time.Time

	// dummyHash is verified against when the email is unknown so that both
	// failure paths cost one hash verification.
	dummyHash string
}

type SessionOption func(*SessionService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

func NewSessionService(m repomanager.RepositoryManager, codec TokenCodec, hasher passwords.Hasher,
	ids IDGenerator, refreshTTL time.Duration, opts ...SessionOption) (*SessionService, error) {

	if refreshTTL < time.Second {
		return nil, errors.New("refresh token ttl must be at least one second")
	}

	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy secret: %w", err)
	}
	dummy, err := hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	s := &SessionService{
		repomanager: m,
		codec:       codec,
		hasher:      hasher,
		ids:         ids,
		refreshTTL:  refreshTTL,
		now:         time.Now,
		dummyHash:   dummy,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func internalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, op, err)
}

// Issue creates a refresh session for userID and returns a fresh token pair.
func (s *SessionService) Issue(ctx context.Context, db dbx.DBTX, userID string) (*models.TokenPair, error) {
	now := s.now().UTC()

	access, err := s.codec.Issue(userID, now)
	if err != nil {
		return nil, internalErr("issue access token", err)
	}

	session := &models.RefreshSession{
		ID:           s.ids.Next(),
		RefreshToken: idgen.NewUUID(),
		ExpiresIn:    int64(s.refreshTTL / time.Second),
		CreatedAt:    now,
		UserID:       userID,
	}
	if err := s.repomanager.RefreshSessions(db).Create(ctx, session); err != nil {
		return nil, internalErr("create session", err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: session.RefreshToken,
		TokenType:    common.TokenTypeBearer,
	}, nil
}

// Rotate exchanges a live refresh token for a new pair. The session row is
// rewritten in place only if it still holds refreshToken; losing that race
// yields common.ErrInvalidToken.
//
// An expired session is deleted and common.ErrTokenExpired is returned
// wrapped by dbx.CommitWith, so dbx.WithTx keeps the delete.
func (s *SessionService) Rotate(ctx context.Context, db dbx.DBTX, refreshToken string) (*models.TokenPair, error) {
	if !idgen.IsUUID(refreshToken) {
		return nil, common.ErrInvalidToken
	}

	sessions := s.repomanager.RefreshSessions(db)
	now := s.now().UTC()

	current, err := sessions.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, internalErr("find session", err)
	}

	if current.Expired(now) {
		if _, err := sessions.DeleteByID(ctx, current.ID); err != nil {
			return nil, internalErr("delete expired session", err)
		}
		return nil, dbx.CommitWith(common.ErrTokenExpired)
	}

	user, err := s.repomanager.Users(db).GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, internalErr("find session owner", err)
	}

	access, err := s.codec.Issue(user.ID, now)
	if err != nil {
		return nil, internalErr("issue access token", err)
	}

	next := &models.RefreshSession{
		RefreshToken: idgen.NewUUID(),
		ExpiresIn:    int64(s.refreshTTL / time.Second),
		CreatedAt:    now,
	}
	if _, err := sessions.Rotate(ctx, refreshToken, next); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, internalErr("rotate session", err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: next.RefreshToken,
		TokenType:    common.TokenTypeBearer,
	}, nil
}

// Revoke deletes the session holding refreshToken. Unknown tokens are
// ignored.
func (s *SessionService) Revoke(ctx context.Context, db dbx.DBTX, refreshToken string) error {
	if !idgen.IsUUID(refreshToken) {
		return nil
	}
	if _, err := s.repomanager.RefreshSessions(db).DeleteByToken(ctx, refreshToken); err != nil {
		return internalErr("revoke session", err)
	}
	return nil
}

// RevokeAll deletes every session of userID and reports how many were
// removed.
func (s *SessionService) RevokeAll(ctx context.Context, db dbx.DBTX, userID string) (int64, error) {
	if !idgen.IsUUID(userID) {
		return 0, nil
	}
	n, err := s.repomanager.RefreshSessions(db).DeleteByUser(ctx, userID)
	if err != nil {
		return 0, internalErr("revoke sessions", err)
	}
	return n, nil
}

// Authenticate checks email and secret. Unknown email and wrong secret both
// yield common.ErrorUnauthorized after one hash verification.
func (s *SessionService) Authenticate(ctx context.Context, db dbx.DBTX, email, secret string) (*models.User, error) {
	user, err := s.repomanager.Users(db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(secret, s.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		return nil, internalErr("find user", err)
	}

	ok, err := s.hasher.Verify(secret, user.HashedPassword)
	if err != nil {
		return nil, internalErr("verify password", err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// ResolveBearer returns the user an access token was issued to. Bad tokens
// and vanished users yield common.ErrInvalidToken.
func (s *SessionService) ResolveBearer(ctx context.Context, db dbx.DBTX, accessToken string) (*models.User, error) {
	userID, err := s.codec.Decode(accessToken)
	if err != nil || !idgen.IsUUID(userID) {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, internalErr("find user", err)
	}
	return user, nil
}
