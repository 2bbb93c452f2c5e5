package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "papertrade/internal/errors"
)

// AssertNoError fails the test if err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAppError fails the test unless err is an AppError with the expected code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", expectedCode)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError with code %s, got %T: %v", expectedCode, err, err)
	}
	if appErr.Code != expectedCode {
		t.Fatalf("expected error code %s, got %s (%s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertDecimalEqual fails the test unless got equals want numerically.
func AssertDecimalEqual(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	if !want.Equal(got) {
		t.Fatalf("expected %s, got %s", want.String(), got.String())
	}
}
