package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/candemir/movie-catalog-service/internal/metrics"
	"github.com/candemir/movie-catalog-service/internal/token"
	"github.com/candemir/movie-catalog-service/internal/user"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLoginFailed        = errors.New("login failed")
	ErrRefreshFailed      = errors.New("refresh failed")

	// Rotation failures stay distinct internally. All three demand
	// re-authentication, but a reused token is also a theft signal worth
	// counting.
	ErrRefreshTokenInvalid = errors.New("refresh token is not recognized")
	ErrRefreshTokenExpired = errors.New("refresh token has expired")
	ErrRefreshTokenReused  = errors.New("refresh token has already been consumed")
)

// refreshValueBytes is the entropy of the opaque refresh secret: 32 bytes,
// 256 bits. A collision on the unique value column is treated as an internal
// fault, never retried.
const refreshValueBytes = 32

// UserDirectory is the slice of the user service the token lifecycle needs.
type UserDirectory interface {
	VerifyCredentials(ctx context.Context, email, password string) (*user.User, error)
	ReadUserByID(ctx context.Context, id uint) (*user.User, error)
}

type AuthenticationService interface {
	Login(ctx context.Context, email, password string) (accessToken, refreshValue string, err error)
	Refresh(ctx context.Context, refreshValue string) (newAccessToken, newRefreshValue string, err error)
	Logout(ctx context.Context, refreshValue string) error
}

type authenticationService struct {
	users              UserDirectory
	records            RecordRepository
	issuer             *token.Issuer
	logger             *zap.Logger
	refreshTokenTTL    time.Duration
	revokeChainOnReuse bool
}

func NewAuthenticationService(
	users UserDirectory,
	records RecordRepository,
	issuer *token.Issuer,
	logger *zap.Logger,
	refreshTTL time.Duration,
	revokeChainOnReuse bool,
) AuthenticationService {
	return &authenticationService{
		users:              users,
		records:            records,
		issuer:             issuer,
		logger:             logger,
		refreshTokenTTL:    refreshTTL,
		revokeChainOnReuse: revokeChainOnReuse,
	}
}

func (a *authenticationService) Login(ctx context.Context, email, password string) (string, string, error) {
	u, err := a.users.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrPasswordMismatch) {
			return "", "", ErrInvalidCredentials
		}
		a.logger.Error("credential verification failed", zap.Error(err))
		return "", "", ErrLoginFailed
	}

	accessJWT, err := a.issuer.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		a.logger.Error("failed to issue access token", zap.Error(err))
		return "", "", ErrLoginFailed
	}

	rec, err := a.issueRefreshToken(ctx, u.ID)
	if err != nil {
		a.logger.Error("failed to issue refresh token", zap.Error(err))
		return "", "", ErrLoginFailed
	}

	metrics.Logins.Inc()
	return accessJWT, rec.Value, nil
}

// Refresh rotates the presented refresh token: the old record is consumed
// with a conditional write, a successor is linked to it, and a fresh access
// token is minted. A record that is already revoked is proof of replay and
// is never re-issued.
func (a *authenticationService) Refresh(ctx context.Context, refreshValue string) (string, string, error) {
	rec, err := a.records.ReadByValue(ctx, refreshValue)
	if err != nil {
		if errors.Is(err, ErrRecordNotFoundByGivenValue) {
			return "", "", ErrRefreshTokenInvalid
		}
		a.logger.Error("refresh token lookup failed", zap.Error(err))
		return "", "", ErrRefreshFailed
	}

	if rec.Revoked() {
		a.reportReuse(ctx, rec)
		return "", "", ErrRefreshTokenReused
	}

	now := time.Now().UTC()
	if rec.Expired(now) {
		return "", "", ErrRefreshTokenExpired
	}

	u, err := a.users.ReadUserByID(ctx, rec.UserID)
	if err != nil {
		a.logger.Error("failed to load refresh token owner", zap.Uint("userID", rec.UserID), zap.Error(err))
		return "", "", ErrRefreshFailed
	}

	newValue, err := generateRefreshValue()
	if err != nil {
		a.logger.Error("failed to generate refresh token value", zap.Error(err))
		return "", "", ErrRefreshFailed
	}

	// The one true race: two rotations of the same value. The conditional
	// write lets exactly one of them consume the record; the loser sees the
	// winner's revocation.
	won, err := a.records.RevokeIfActive(ctx, rec.ID, now, &newValue)
	if err != nil {
		a.logger.Error("failed to consume refresh token", zap.Uint("recordID", rec.ID), zap.Error(err))
		return "", "", ErrRefreshFailed
	}
	if !won {
		a.reportReuse(ctx, rec)
		return "", "", ErrRefreshTokenReused
	}

	successor := &RefreshTokenRecord{
		UserID:    rec.UserID,
		Value:     newValue,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.refreshTokenTTL),
	}
	if err := a.records.Create(ctx, successor); err != nil {
		// Fail closed: the old record is already consumed, so the user has
		// to authenticate again. Better a forced login than two live heads
		// on one chain.
		a.logger.Error("failed to persist successor refresh token", zap.Uint("recordID", rec.ID), zap.Error(err))
		return "", "", ErrRefreshFailed
	}

	accessJWT, err := a.issuer.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		a.logger.Error("failed to issue access token", zap.Error(err))
		return "", "", ErrRefreshFailed
	}

	metrics.TokenRotations.Inc()
	return accessJWT, successor.Value, nil
}

// Logout revokes the presented token. It never fails visibly: an unknown or
// already-revoked token is a no-op, and store faults are logged and
// swallowed.
func (a *authenticationService) Logout(ctx context.Context, refreshValue string) error {
	rec, err := a.records.ReadByValue(ctx, refreshValue)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFoundByGivenValue) {
			a.logger.Error("logout lookup failed", zap.Error(err))
		}
		return nil
	}
	if rec.Revoked() {
		return nil
	}
	if _, err := a.records.RevokeIfActive(ctx, rec.ID, time.Now().UTC(), nil); err != nil {
		a.logger.Error("logout revocation failed", zap.Uint("recordID", rec.ID), zap.Error(err))
	}
	return nil
}

func (a *authenticationService) issueRefreshToken(ctx context.Context, userID uint) (*RefreshTokenRecord, error) {
	value, err := generateRefreshValue()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := &RefreshTokenRecord{
		UserID:    userID,
		Value:     value,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.refreshTokenTTL),
	}
	if err := a.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// reportReuse surfaces a replayed token. Could be a stale client retry,
// could be a thief holding a superseded token; either way it is counted, and
// with containment enabled the whole chain of the owner goes dark.
func (a *authenticationService) reportReuse(ctx context.Context, rec *RefreshTokenRecord) {
	metrics.ReuseDetections.Inc()
	a.logger.Warn("refresh token reuse detected",
		zap.Uint("recordID", rec.ID),
		zap.Uint("userID", rec.UserID),
		zap.Bool("rotated", rec.Rotated()),
	)
	if !a.revokeChainOnReuse {
		return
	}
	if err := a.records.RevokeAllForUser(ctx, rec.UserID, time.Now().UTC()); err != nil {
		a.logger.Error("failed to revoke token chain after reuse", zap.Uint("userID", rec.UserID), zap.Error(err))
	}
}

func generateRefreshValue() (string, error) {
	buf := make([]byte, refreshValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
