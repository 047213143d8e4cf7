package api

import (
	"alcyxob/club-app/internal/repository"
	"alcyxob/club-app/internal/service"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const genericErrorMessage = "An unexpected error occurred. Please try again later."

// errorResponse maps a service error to a status code and JSON body.
// Unknown errors get a generic message; ok is false for them so the caller
// can log the detail.
func errorResponse(err error) (status int, body gin.H, ok bool) {
	var (
		validationErr *service.ValidationError
		mismatchErr   *service.DurationMismatchError
		deniedErr     *service.AttendanceDeniedError
	)
	switch {
	case errors.As(err, &validationErr):
		body = gin.H{"error": validationErr.Error()}
		if validationErr.Field != "" {
			body["field"] = validationErr.Field
		}
		return http.StatusBadRequest, body, true
	case errors.As(err, &mismatchErr):
		return http.StatusBadRequest, gin.H{"error": mismatchErr.Error(), "durationCheck": mismatchErr.Check}, true
	case errors.As(err, &deniedErr):
		return http.StatusForbidden, gin.H{"error": deniedErr.Error(), "reason": deniedErr.Reason}, true

	case errors.Is(err, service.ErrPlanLocked):
		return http.StatusLocked, gin.H{"error": err.Error(), "readOnly": true}, true

	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrAttachmentNotFound):
		return http.StatusNotFound, gin.H{"error": err.Error()}, true

	case errors.Is(err, service.ErrScheduleNotTraining),
		errors.Is(err, service.ErrScheduleTeamMismatch),
		errors.Is(err, service.ErrSchedulePast):
		return http.StatusBadRequest, gin.H{"error": err.Error(), "field": "scheduleId"}, true

	case errors.Is(err, service.ErrPlanAccessDenied),
		errors.Is(err, service.ErrTransitionForbidden):
		return http.StatusForbidden, gin.H{"error": err.Error()}, true

	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrStatusConflict),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, gin.H{"error": err.Error()}, true

	case errors.Is(err, service.ErrAttachmentsDisabled):
		return http.StatusServiceUnavailable, gin.H{"error": err.Error()}, true
	}
	return http.StatusInternalServerError, gin.H{"error": genericErrorMessage}, false
}

// respondError writes the error response for err, logging unexpected errors.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, body, known := errorResponse(err)
	if !known {
		logUnexpected(c, logger, err)
	}
	c.AbortWithStatusJSON(status, body)
}

func logUnexpected(c *gin.Context, logger *zap.Logger, err error) {
	_ = c.Error(err)
	logger.Error("unexpected error",
		zap.String("requestId", requestIDFromContext(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
}

// bindError turns a failed ShouldBindJSON into a ValidationError naming the
// offending field when the decoder or the binding validator reports one.
func bindError(err error) error {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		fieldErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return &service.ValidationError{Field: field, Message: "must be of type " + typeErr.Type.String()}
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &service.ValidationError{Field: "body", Message: "is not valid JSON"}
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		fe := fieldErrs[0]
		message := "is invalid"
		if fe.Tag() == "required" {
			message = "is required"
		}
		return &service.ValidationError{Field: lowerFirst(fe.Field()), Message: message}
	}
	return &service.ValidationError{Field: "body", Message: "could not be read"}
}

// lowerFirst maps a Go field name to its JSON name ("ContentType" -> "contentType").
func lowerFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}
