package scene

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		message string
		want    Scene
	}{
		{"I want to swap BTC for ETH", Swap},
		{"帮我兑换一些 USDT", Swap},
		{"交换代币", Swap},
		{"How do I deposit funds?", Deposit},
		{"我要充值", Deposit},
		{"入金流程是什么", Deposit},
		{"what is the market doing today", Text},
		{"", Text},
		{"SWAP NOW", Swap},   // case-insensitive
		{"DePoSiT", Deposit}, // case-insensitive
	}
	for _, tc := range cases {
		if got := Detect(tc.message); got != tc.want {
			t.Fatalf("Detect(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestDetectSwapWinsOverDeposit(t *testing.T) {
	// Both keyword families present: swap takes priority.
	if got := Detect("should I deposit first or swap directly"); got != Swap {
		t.Fatalf("expected swap priority, got %q", got)
	}
	if got := Detect("充值之后兑换"); got != Swap {
		t.Fatalf("expected swap priority, got %q", got)
	}
}
