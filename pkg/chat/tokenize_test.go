package chat

import (
	"strings"
	"testing"
	"unicode"
)

func TestTokenizeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"hello world",
		"  leading and   trailing  ",
		"好的，正在为你准备一笔 swap 交易。",
		"我想充值USDT到钱包",
		"line1\nline2\tline3",
		"BTC/USDT 0.5 swap",
	}
	for _, in := range cases {
		got := strings.Join(Tokenize(in), "")
		if got != in {
			t.Fatalf("round trip mismatch: %q -> %q", in, got)
		}
	}
}

func TestTokenizeCJKChunkSizes(t *testing.T) {
	// A long Han run must come back in chunks of 1..3 runes.
	in := "这是一个用来验证切分规则的比较长的中文句子"
	for _, tok := range Tokenize(in) {
		runes := []rune(tok)
		if len(runes) < 1 || len(runes) > 3 {
			t.Fatalf("cjk chunk %q has %d runes", tok, len(runes))
		}
		for _, r := range runes {
			if !unicode.Is(unicode.Han, r) {
				t.Fatalf("non-han rune %q in cjk chunk %q", r, tok)
			}
		}
	}
}

func TestTokenizeChunkSizeRotation(t *testing.T) {
	in := "一二三四五六七八九十"
	toks := Tokenize(in)
	want := []int{1, 2, 3, 1, 2, 1}
	if len(toks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(toks), toks)
	}
	for i, tok := range toks {
		if n := len([]rune(tok)); n != want[i] {
			t.Fatalf("chunk %d: want %d runes, got %d (%q)", i, want[i], n, tok)
		}
	}
}

func TestTokenizeNonCJKWordsWhole(t *testing.T) {
	toks := Tokenize("swap 0.5 BTC")
	want := []string{"swap", " ", "0.5", " ", "BTC"}
	if len(toks) != len(want) {
		t.Fatalf("want %v, got %v", want, toks)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Fatalf("token %d: want %q, got %q", i, want[i], toks[i])
		}
	}
}

func TestTokenizeWhitespaceRunSingleChunk(t *testing.T) {
	toks := Tokenize("a \t\n b")
	want := []string{"a", " \t\n ", "b"}
	if len(toks) != len(want) {
		t.Fatalf("want %v, got %v", want, toks)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Fatalf("token %d: want %q, got %q", i, want[i], toks[i])
		}
	}
}

func TestTokenizeMixedScript(t *testing.T) {
	// Han runs chunked, the latin word kept whole, boundaries exact.
	toks := Tokenize("充值USDT")
	if got := strings.Join(toks, ""); got != "充值USDT" {
		t.Fatalf("round trip mismatch: %q", got)
	}
	for _, tok := range toks {
		hasHan, hasOther := false, false
		for _, r := range tok {
			if unicode.Is(unicode.Han, r) {
				hasHan = true
			} else {
				hasOther = true
			}
		}
		if hasHan && hasOther {
			t.Fatalf("token %q mixes han and non-han runes", tok)
		}
	}
}
