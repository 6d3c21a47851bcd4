package passphrase

import "testing"

func TestSourcePrefersEnvironment(t *testing.T) {
	t.Setenv("CASE_TEST_PASS", "hunter2")
	src := NewSource("CASE_TEST_PASS", "admin keystore")
	got, err := src.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "hunter2" {
		t.Fatalf("expected env passphrase, got %q", got)
	}
	t.Setenv("CASE_TEST_PASS", "changed")
	if again, _ := src.Get(); again != "hunter2" {
		t.Fatalf("expected cached passphrase, got %q", again)
	}
}

func TestSourceRejectsBlankEnvironment(t *testing.T) {
	for _, value := range []string{"", "   "} {
		t.Setenv("CASE_TEST_PASS", value)
		got, err := NewSource("CASE_TEST_PASS", "").Get()
		if err == nil || got != "" {
			t.Fatalf("expected blank %q to be rejected, got %q err=%v", value, got, err)
		}
	}
}
