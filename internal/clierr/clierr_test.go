package clierr

import "testing"

func TestExitCodeDefaults(t *testing.T) {
	e := New(KindNotFound, "no such project")
	if e.ExitCode() != 6 {
		t.Errorf("ExitCode() = %d, want 6", e.ExitCode())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidInput, 400},
		{KindNotFound, 404},
		{KindConflict, 409},
		{KindAuthentication, 401},
		{KindRateLimited, 429},
		{KindCircuitOpen, 503},
	}
	for _, tt := range tests {
		e := New(tt.kind, "x")
		if got := e.HTTPStatus(); got != tt.want {
			t.Errorf("Kind %s: HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestToEnvelope(t *testing.T) {
	e := New(KindConflict, "root path already linked")
	env := ToEnvelope(e, "2024-01-20T10:00:00Z", "trace-1")
	if env.Error != KindConflict {
		t.Errorf("Error = %v, want %v", env.Error, KindConflict)
	}
	if env.Code != 409 {
		t.Errorf("Code = %d, want 409", env.Code)
	}
	if env.TraceID != "trace-1" {
		t.Errorf("TraceID = %q, want trace-1", env.TraceID)
	}
}
