package cli

import (
	"errors"
	"testing"

	"janitor-hq/janitor/pkg/cleanup"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("--soft-days", "must not be negative")
	want := "config error in --soft-days: must not be negative"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError(t *testing.T) {
	err := NewCommandError("run", cleanup.ErrAllPassesFailed)

	if err.Error() != "run failed: all cleanup passes failed" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cleanup.ErrAllPassesFailed) {
		t.Error("errors.Is should see through CommandError")
	}
}
