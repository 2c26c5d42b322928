package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nmthanh/tutorhub/internal/apperror"
	"github.com/nmthanh/tutorhub/internal/dto"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// Identity is the caller as asserted by the gateway in front of this
// service. The gateway authenticates; this service only reads the headers.
type Identity struct {
	UserID uint
	Role   string
}

// CallerIdentity reads the identity headers, writing a 401 and returning
// false when they are missing or malformed.
func CallerIdentity(ctx *gin.Context) (Identity, bool) {
	raw := ctx.GetHeader(HeaderUserID)
	if raw == "" {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing " + HeaderUserID + " header"})
		return Identity{}, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid " + HeaderUserID + " header"})
		return Identity{}, false
	}
	return Identity{UserID: uint(id), Role: ctx.GetHeader(HeaderUserRole)}, true
}

// RequireRole is CallerIdentity plus a role gate.
func RequireRole(ctx *gin.Context, role string) (Identity, bool) {
	ident, ok := CallerIdentity(ctx)
	if !ok {
		return Identity{}, false
	}
	if ident.Role != role {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: "This endpoint requires the " + role + " role"})
		return Identity{}, false
	}
	return ident, true
}

// UintParam parses a numeric path parameter, writing a 400 and returning
// false when it is not a positive integer.
func UintParam(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

// statusFor maps the domain error taxonomy onto HTTP statuses. Unknown
// errors are 500s; the body never leaks internals beyond the message.
func statusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindNotActive, apperror.KindAttemptsExhausted, apperror.KindInvalidState:
		return http.StatusConflict
	case apperror.KindValidationFailed:
		return http.StatusUnprocessableEntity
	case apperror.KindLookupUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the uniform error body for a service error. For
// validation failures Details carries the complete violation list.
func RespondError(ctx *gin.Context, err error) {
	body := dto.ErrorResponse{Message: err.Error()}
	if violations := apperror.ViolationsOf(err); len(violations) > 0 {
		body.Details = violations
	}
	ctx.JSON(statusFor(err), body)
}
