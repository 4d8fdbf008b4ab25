package database

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewStorageError(t *testing.T) {
	if NewStorageError("op", nil) != nil {
		t.Error("expected nil for nil error")
	}

	base := errors.New("connection refused")
	err := NewStorageError("mark attendance", base)
	if !IsStorageError(err) {
		t.Fatalf("expected StorageError, got %T", err)
	}
	if !errors.Is(err, base) {
		t.Error("expected StorageError to unwrap to the base error")
	}
	if err.Error() != "storage: mark attendance: connection refused" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	// Already wrapped errors are not double wrapped.
	again := NewStorageError("other", fmt.Errorf("context: %w", err))
	var se *StorageError
	if !errors.As(again, &se) || se.Op != "mark attendance" {
		t.Errorf("expected original op to be kept, got %v", again)
	}
}

func TestIsStorageError(t *testing.T) {
	if IsStorageError(ErrStudentExists) {
		t.Error("ErrStudentExists should not be a StorageError")
	}
	if IsStorageError(nil) {
		t.Error("nil should not be a StorageError")
	}
}
