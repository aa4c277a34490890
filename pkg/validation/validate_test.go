package validation

import (
	"strings"
	"testing"
)

func TestValidateTurnInput(t *testing.T) {
	if err := ValidateTurnInput("hello"); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	if err := ValidateTurnInput("   "); err == nil {
		t.Fatalf("blank message accepted")
	}
	if err := ValidateTurnInput(strings.Repeat("啊", 4097)); err == nil {
		t.Fatalf("over-long message accepted")
	}
	// 4096 runes of multi-byte text is still within the limit.
	if err := ValidateTurnInput(strings.Repeat("啊", 4096)); err != nil {
		t.Fatalf("limit must count runes, not bytes: %v", err)
	}
}

func TestValidateSessionID(t *testing.T) {
	if err := ValidateSessionID("sess-123"); err != nil {
		t.Fatalf("valid id rejected: %v", err)
	}
	for _, bad := range []string{"", "  ", "with space", "with:colon", "with\nnewline", strings.Repeat("a", 129)} {
		if err := ValidateSessionID(bad); err == nil {
			t.Fatalf("invalid id %q accepted", bad)
		}
	}
}

func TestValidateNewMessage(t *testing.T) {
	if err := ValidateNewMessage("s1", "q", "a"); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	if err := ValidateNewMessage("s1", "", "a"); err == nil {
		t.Fatalf("empty question accepted")
	}
	if err := ValidateNewMessage("s1", "q", ""); err == nil {
		t.Fatalf("empty answer accepted")
	}
	if err := ValidateNewMessage("", "q", "a"); err == nil {
		t.Fatalf("empty session id accepted")
	}
}

func TestValidateMessagePatch(t *testing.T) {
	q, a := "new question", "new answer"
	if err := ValidateMessagePatch(&q, &a); err != nil {
		t.Fatalf("valid patch rejected: %v", err)
	}
	if err := ValidateMessagePatch(nil, nil); err != nil {
		t.Fatalf("empty patch rejected: %v", err)
	}
	blank := "  "
	if err := ValidateMessagePatch(&blank, nil); err == nil {
		t.Fatalf("blank question accepted")
	}
	long := strings.Repeat("x", 70000)
	if err := ValidateMessagePatch(nil, &long); err == nil {
		t.Fatalf("over-long answer accepted")
	}
}
