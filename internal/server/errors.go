package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/formpay/internal/analytics/domain"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case paymentdomain.IsVerificationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "webhook_verification_failed",
			Message: webhookErrorCode(err),
		}
	case errors.Is(err, paymentdomain.ErrMalformedEvent):
		return http.StatusBadRequest, errorPayload{
			Type:    "webhook_malformed_event",
			Message: "malformed_event",
		}
	case errors.Is(err, paymentdomain.ErrProviderRejected):
		return http.StatusBadRequest, errorPayload{
			Type:    "provider_rejected",
			Message: "payment provider rejected the request",
		}
	case errors.Is(err, paymentdomain.ErrProviderUnavailable):
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_unavailable",
			Message: "payment provider unavailable",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger's error_type/error_code fields.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if status == http.StatusBadRequest {
		code = payload.Message
	}
	if status >= http.StatusInternalServerError {
		return "server_error", code
	}
	return "client_error", code
}

func webhookErrorCode(err error) string {
	switch {
	case errors.Is(err, paymentdomain.ErrMalformedHeader):
		return paymentdomain.ErrMalformedHeader.Error()
	case errors.Is(err, paymentdomain.ErrStaleTimestamp):
		return paymentdomain.ErrStaleTimestamp.Error()
	default:
		return paymentdomain.ErrInvalidSignature.Error()
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidCurrency),
		errors.Is(err, paymentdomain.ErrInvalidEmail),
		errors.Is(err, paymentdomain.ErrInvalidForm),
		errors.Is(err, analyticsdomain.ErrInvalidFormID),
		errors.Is(err, analyticsdomain.ErrInvalidDateRange):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, analyticsdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, paymentdomain.ErrInvalidAmount):
		return paymentdomain.ErrInvalidAmount.Error()
	case errors.Is(err, paymentdomain.ErrInvalidCurrency):
		return paymentdomain.ErrInvalidCurrency.Error()
	case errors.Is(err, paymentdomain.ErrInvalidEmail):
		return paymentdomain.ErrInvalidEmail.Error()
	case errors.Is(err, paymentdomain.ErrInvalidForm):
		return paymentdomain.ErrInvalidForm.Error()
	case errors.Is(err, analyticsdomain.ErrInvalidFormID):
		return analyticsdomain.ErrInvalidFormID.Error()
	case errors.Is(err, analyticsdomain.ErrInvalidDateRange):
		return analyticsdomain.ErrInvalidDateRange.Error()
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "invalid_form", "invalid_form_id":
		return "formId"
	case "invalid_date_range":
		return "endDate"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_amount":
		return "amount must be a positive integer in minor units"
	case "invalid_currency":
		return "currency must be a 3-letter ISO 4217 code"
	case "invalid_email":
		return "email is not valid"
	case "invalid_form", "invalid_form_id":
		return "formId is required"
	case "invalid_date_range":
		return "endDate must not be before startDate"
	default:
		return "invalid value"
	}
}
