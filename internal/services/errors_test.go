package services_test

import (
	"errors"
	"strings"
	"testing"

	"medmatch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("disk full")
	err := services.Wrap(services.ErrTransient, "persist", "set", "write mapping", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	for _, fragment := range []string{"persist", "set", "write mapping"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error string %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestRecoverable(t *testing.T) {
	if !services.Recoverable(nil) {
		t.Fatal("nil error should be recoverable")
	}
	if services.Recoverable(services.Wrap(services.ErrConfiguration, "catalog", "load", "", nil)) {
		t.Fatal("configuration errors are not recoverable")
	}
	if !services.Recoverable(services.Wrap(services.ErrTransient, "report", "send", "", errors.New("timeout"))) {
		t.Fatal("transient errors are recoverable")
	}
}
