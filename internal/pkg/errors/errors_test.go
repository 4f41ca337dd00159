package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New("AGENT_NOT_FOUND", "agent not found", http.StatusNotFound),
			want: "AGENT_NOT_FOUND: agent not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), "DB_ERROR", "database failure", http.StatusInternalServerError),
			want: "DB_ERROR: database failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, "CODE", "msg", 500)

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound("NOT_FOUND", "resource not found")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if got.Code != "NOT_FOUND" {
		t.Errorf("Code = %q, want NOT_FOUND", got.Code)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("update: %w", ErrAgentNotFoundf(7))

	if !HasCode(err, CodeAgentNotFound) {
		t.Error("HasCode should match wrapped AGENT_NOT_FOUND")
	}
	if HasCode(err, CodeDuplicateCodename) {
		t.Error("HasCode should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeAgentNotFound) {
		t.Error("HasCode should be false for non-AppError")
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   string
	}{
		{"NotFound", NotFound("NF", "not found"), http.StatusNotFound, "NF"},
		{"BadRequest", BadRequest("BR", "bad request"), http.StatusBadRequest, "BR"},
		{"Conflict", Conflict("CF", "conflict"), http.StatusConflict, "CF"},
		{"Internal", Internal("IE", "internal"), http.StatusInternalServerError, "IE"},
		{"Unavailable", Unavailable("SU", "unavailable"), http.StatusServiceUnavailable, "SU"},
		{"agent not found", ErrAgentNotFoundf(3), http.StatusNotFound, CodeAgentNotFound},
		{"codename not found", ErrCodenameNotFoundf("Ghost"), http.StatusNotFound, CodeAgentNotFound},
		{"duplicate codename", ErrDuplicateCodenamef("Ghost"), http.StatusBadRequest, CodeDuplicateCodename},
		{"store unavailable", ErrStoreUnavailable(errors.New("conn refused")), http.StatusServiceUnavailable, CodeStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
		})
	}
}

func TestErrInvalidInput_NamesField(t *testing.T) {
	err := ErrInvalidInput(FieldError{Field: "codename", Code: ReasonInvalidChars, Message: "must contain only letters"})

	if err.Field() != "codename" {
		t.Errorf("Field() = %q, want codename", err.Field())
	}
	if err.Message != "invalid codename: must contain only letters" {
		t.Errorf("Message = %q", err.Message)
	}
	if (&AppError{}).Field() != "" {
		t.Error("Field() on error without field details should be empty")
	}
}
