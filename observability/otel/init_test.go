package otel

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" api-key = abc ,broken, =skip,tenant=case ")
	if len(headers) != 2 || headers["api-key"] != "abc" || headers["tenant"] != "case" {
		t.Fatalf("unexpected headers %v", headers)
	}
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitRequiresServiceName(t *testing.T) {
	if _, err := Init(context.Background(), Config{Traces: true}); err == nil {
		t.Fatalf("expected missing service name to fail")
	}
}
