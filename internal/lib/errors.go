package lib

import (
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// GenericErrorMessage is returned to clients when an error carries no message.
const GenericErrorMessage = "Error happened. Please try again."

// HandleError converts a standard error into a gRPC status error.
// It maps specific, known errors to appropriate gRPC status codes.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Internal
	message := "An unexpected error occurred."

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = codes.NotFound
		message = "The requested resource was not found."
	case errors.Is(err, gorm.ErrDuplicatedKey):
		code = codes.AlreadyExists
		message = "The resource already exists."
	}

	return status.Error(code, message)
}

// NotFoundError returns a gRPC NotFound error.
func NotFoundError(message string) error {
	if message == "" {
		message = "The requested resource was not found."
	}
	return status.Error(codes.NotFound, message)
}

// InternalError returns a gRPC Internal error.
func InternalError() error {
	return status.Error(codes.Internal, "An unexpected internal error occurred.")
}

// InvalidArgumentError returns a gRPC InvalidArgument error.
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

// UnauthenticatedError returns a gRPC Unauthenticated error.
func UnauthenticatedError(message string) error {
	if message == "" {
		message = "Unauthorized"
	}
	return status.Error(codes.Unauthenticated, message)
}

// PermissionDeniedError returns a gRPC PermissionDenied error.
func PermissionDeniedError(message string) error {
	if message == "" {
		message = "You do not have permission to perform this action."
	}
	return status.Error(codes.PermissionDenied, message)
}

// ConflictError returns a gRPC AlreadyExists error.
func ConflictError(message string) error {
	return status.Error(codes.AlreadyExists, message)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// HTTPError converts any error into an HTTP status and response body.
func HTTPError(err error) (int, ErrorBody) {
	st := status.Convert(HandleError(err))

	httpStatus := runtime.HTTPStatusFromCode(st.Code())
	message := st.Message()
	if message == "" {
		message = GenericErrorMessage
	}

	return httpStatus,
		ErrorBody{
			StatusCode: httpStatus,
			Message:    message,
			Error:      http.StatusText(httpStatus),
		}
}
