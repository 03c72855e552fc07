package lib

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

func TestHandleError(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{gorm.ErrRecordNotFound, codes.NotFound},
		{fmt.Errorf("select post: %w", gorm.ErrRecordNotFound), codes.NotFound},
		{gorm.ErrDuplicatedKey, codes.AlreadyExists},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.PermissionDenied, "nope"), codes.PermissionDenied},
	}
	for i, c := range cases {
		if got := status.Code(HandleError(c.err)); got != c.code {
			t.Fatalf("case %d expected %s, got %s", i, c.code, got)
		}
	}
	if HandleError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestHTTPError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{NotFoundError("post not found"), http.StatusNotFound, "post not found"},
		{UnauthenticatedError(""), http.StatusUnauthorized, "Unauthorized"},
		{InvalidArgumentError("bad value"), http.StatusBadRequest, "bad value"},
		{ConflictError("already voted"), http.StatusConflict, "already voted"},
		{status.Error(codes.Internal, ""), http.StatusInternalServerError, GenericErrorMessage},
	}
	for i, c := range cases {
		httpStatus, body := HTTPError(c.err)
		if httpStatus != c.status {
			t.Fatalf("case %d expected %d, got %d", i, c.status, httpStatus)
		}
		if body.Message != c.message {
			t.Fatalf("case %d expected message %q, got %q", i, c.message, body.Message)
		}
		if body.StatusCode != c.status || body.Error != http.StatusText(c.status) {
			t.Fatalf("case %d unexpected body %+v", i, body)
		}
	}
}
