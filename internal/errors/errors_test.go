package errors

import (
	"fmt"
	"testing"
)

func TestGristError_Error(t *testing.T) {
	err := &GristError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "idea not found",
	}

	expected := "NOT_FOUND: idea not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("idea-042")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["idea_id"] != "idea-042" {
		t.Errorf("Details[idea_id] = %v, want %q", err.Details["idea_id"], "idea-042")
	}
}

func TestNewInvalidCategory(t *testing.T) {
	valid := []string{"system", "ux"}
	err := NewInvalidCategory("gardening", valid)

	if err.Code != ErrInvalidCategory {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidCategory)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Details["category"] != "gardening" {
		t.Errorf("Details[category] = %v, want %q", err.Details["category"], "gardening")
	}
}

func TestNewAlreadyImplemented(t *testing.T) {
	err := NewAlreadyImplemented("idea-007")

	if err.Code != ErrAlreadyImplemented {
		t.Errorf("Code = %q, want %q", err.Code, ErrAlreadyImplemented)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("disk full"))

	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if err.Message != "disk full" {
		t.Errorf("Message = %q, want %q", err.Message, "disk full")
	}

	nilErr := NewInternal(nil)
	if nilErr.Message != "internal error" {
		t.Errorf("Message = %q, want %q", nilErr.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("idea-001")

	if !Is(err, ErrNotFound) {
		t.Error("Is(NewNotFound, ErrNotFound) = false, want true")
	}
	if Is(err, ErrInternal) {
		t.Error("Is(NewNotFound, ErrInternal) = true, want false")
	}
	if Is(fmt.Errorf("plain"), ErrNotFound) {
		t.Error("Is(plain error, ErrNotFound) = true, want false")
	}
}
