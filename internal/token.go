package internal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/flowerbelle/internal/errors"
	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/internal/otel"
)

const tokenTypeAccess = "access"

// AccessClaims mirrors the access token issued by the backend: HS256 signed
// with the shared secret and identifying the staff member by user_id.
type AccessClaims struct {
	UserID    json.Number `json:"user_id"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// Staff is the authenticated caller. Token is forwarded verbatim to the backend.
type Staff struct {
	UserID string
	Token  string
}

func VerifyToken(c context.Context, secret string, token string) (Staff, error) {
	c, span := otel.Tracer.Start(c, "VerifyToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifyToken").
		Str(log.KeyProcess, "parsing claims").
		Logger()

	logger.Trace().Msg("parsing claims")
	claims := &AccessClaims{}
	jwtToken, err := jwt.ParseWithClaims(token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Staff{}, fmt.Errorf("%w: %w", errors.ErrTokenInvalid, err)
	}
	logger.Trace().Msg("parsed claims")

	logger = logger.With().Str(log.KeyProcess, "validating token").Logger()
	logger.Trace().Msg("validating token")
	if !jwtToken.Valid {
		err = fmt.Errorf("failed validating token with error=%w", errors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Staff{}, errors.ErrTokenInvalid
	}
	if claims.TokenType != tokenTypeAccess {
		err = fmt.Errorf("failed validating token type=%s with error=%w", claims.TokenType, errors.ErrNotAccessToken)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Staff{}, errors.ErrNotAccessToken
	}
	userID := claims.UserID.String()
	if userID == "" {
		otel.RecordError(errors.ErrEmptySubject, span)
		logger.Error().Err(errors.ErrEmptySubject).Msg(errors.ErrEmptySubject.Error())
		return Staff{}, errors.ErrEmptySubject
	}
	logger.Info().Str(log.KeyUserID, userID).Msg("validated token")

	return Staff{UserID: userID, Token: token}, nil
}

type staffKey struct{}

func AttachStaff(c context.Context, staff Staff) context.Context {
	return context.WithValue(c, staffKey{}, staff)
}

func StaffFromContext(c context.Context) (Staff, error) {
	staff, ok := c.Value(staffKey{}).(Staff)
	if !ok {
		return Staff{}, errors.ErrMissingToken
	}
	return staff, nil
}
