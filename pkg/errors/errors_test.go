package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeTransactionFailed, status: http.StatusInternalServerError, publicMsg: "operation rolled back, safe to retry", retryable: true},
		{code: CodeReconciliation, status: http.StatusAccepted, publicMsg: "event acknowledged, flagged for manual reconciliation", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]string{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("expected details to be set")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "query failed")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if As(wrapped).Code() != CodeDependency {
		t.Fatalf("unexpected code %s", As(wrapped).Code())
	}
}

func TestIsCode(t *testing.T) {
	err := New(CodeConflict, "code already taken")
	if !IsCode(err, CodeConflict) {
		t.Fatalf("expected conflict code match")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatalf("unexpected not-found match")
	}
	if IsCode(stdErrors.New("plain"), CodeConflict) {
		t.Fatalf("plain errors carry no code")
	}
}
