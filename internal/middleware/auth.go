package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alturino/flowerbelle/internal"
	inErrors "github.com/Alturino/flowerbelle/internal/errors"
	inHttp "github.com/Alturino/flowerbelle/internal/http"
	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/internal/otel"
)

const noticeSessionExpired = "Session expired. Please log in again."

// Auth verifies the bearer access token and attaches the staff member to the
// request context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware Auth")
			defer span.End()

			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "middleware Auth").
				Str(log.KeyProcess, "verifying authorization").
				Logger()

			authorization := r.Header.Get(inHttp.KEY_HEADER_AUTHORIZATION)
			if authorization == "" {
				otel.RecordError(inErrors.ErrEmptyAuth, span)
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrEmptyAuth.Error(), noticeSessionExpired)
				return
			}
			if len(authorization) < len(inHttp.VALUE_BEARER_PREFIX) ||
				!strings.EqualFold(authorization[:len(inHttp.VALUE_BEARER_PREFIX)], inHttp.VALUE_BEARER_PREFIX) {
				otel.RecordError(inErrors.ErrTokenInvalid, span)
				logger.Error().Err(inErrors.ErrTokenInvalid).Msg(inErrors.ErrTokenInvalid.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrTokenInvalid.Error(), noticeSessionExpired)
				return
			}

			token := strings.TrimSpace(authorization[len(inHttp.VALUE_BEARER_PREFIX):])
			staff, err := internal.VerifyToken(c, secret, token)
			if err != nil {
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, err.Error(), noticeSessionExpired)
				return
			}

			logger = logger.With().Str(log.KeyUserID, staff.UserID).Logger()
			logger.Debug().Msg("verified authorization")
			c = internal.AttachStaff(c, staff)
			c = logger.WithContext(c)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
