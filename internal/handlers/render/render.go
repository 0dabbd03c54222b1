package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/runboard/internal/apperrors"
)

// Error kinds clients can switch on
const (
	ValidationErrorType      = "validation_failed"
	DecodingErrorType        = "decoding_failed"
	BadRequestErrorType      = "bad_request"
	NotEnoughActivitiesType  = "not_enough_activities"
	AuthErrorType            = "not_authenticated"
	FetchInProgressErrorType = "fetch_in_progress"
	UpstreamErrorType        = "strava_unavailable"
	InternalErrorType        = "internal_error"
)

const (
	internalErrorMessage = "Internal server error"
	maxRequestBody       = 1 << 16
)

var validate = validator.New()

func init() {
	configureValidator(validate)
}

type Struct any

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// Fail writes error of the given kind
func Fail(w http.ResponseWriter, kind string, message string, code int) {
	JSONWithStatus(w, ErrorResponse{Error: kind, Message: message}, code)
}

// AppError maps dashboard errors to status and kind, writes the response and returns the status.
// Anything it does not recognize is hidden behind 500.
func AppError(w http.ResponseWriter, err error) int {
	var (
		validationErr *apperrors.ValidationError
		authErr       *apperrors.AuthError
		fetchErr      *apperrors.FetchError
	)

	switch {
	case errors.As(err, &validationErr):
		JSONWithStatus(w, ErrorResponse{
			Error:   ValidationErrorType,
			Message: validationErr.Error(),
			Fields:  map[string]string{validationErr.Field: validationErr.Message},
		}, http.StatusUnprocessableEntity)
		return http.StatusUnprocessableEntity

	case errors.Is(err, apperrors.ErrNotEnoughActivities):
		Fail(w, NotEnoughActivitiesType, err.Error(), http.StatusUnprocessableEntity)
		return http.StatusUnprocessableEntity

	case errors.Is(err, apperrors.ErrFetchInProgress):
		Fail(w, FetchInProgressErrorType, "Activities are already loading", http.StatusConflict)
		return http.StatusConflict

	case errors.Is(err, apperrors.ErrInvalidState):
		Fail(w, BadRequestErrorType, "Invalid or expired state", http.StatusBadRequest)
		return http.StatusBadRequest

	case errors.As(err, &authErr):
		Fail(w, AuthErrorType, authErr.Error(), http.StatusUnauthorized)
		return http.StatusUnauthorized

	case errors.As(err, &fetchErr):
		Fail(w, UpstreamErrorType, fetchErr.Error(), http.StatusBadGateway)
		return http.StatusBadGateway

	default:
		Fail(w, InternalErrorType, internalErrorMessage, http.StatusInternalServerError)
		return http.StatusInternalServerError
	}
}

// DecodeError explains why request body is not acceptable JSON
func DecodeError(w http.ResponseWriter, err error) {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		sizeErr   *http.MaxBytesError
		message   string
	)

	switch {
	case errors.Is(err, io.EOF):
		message = "Request body is empty"
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	case errors.As(err, &syntaxErr):
		message = "Malformed JSON: " + syntaxErr.Error()
	case errors.As(err, &sizeErr):
		message = fmt.Sprintf("Request body is larger than %d bytes", sizeErr.Limit)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	Fail(w, DecodingErrorType, message, http.StatusBadRequest)
}

// ValidationErrors renders failed struct tags per field
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Request validation failed",
		Fields:  make(map[string]string, len(errs)),
	}

	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "datetime":
			message = "Date must be in YYYY-MM-DD format"
		case "activitytype":
			message = "Activity type may contain letters, digits, spaces, '_' and '-' only"
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	JSONWithStatus(w, response, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into T and checks its struct tags.
// On failure the error response is already written.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			Fail(w, InternalErrorType, internalErrorMessage, http.StatusInternalServerError)
			return value, err
		}
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// JSONWithStatus sends data as json and enforces status code
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
