package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecretsAndHashesUserIDs(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"openai_api_key", "sk-123",
		"user_id", "u-42",
		"stage", "REPORTING",
	})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("api key: want=[REDACTED] got=%v", out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || strings.Contains(hashed, "u-42") {
		t.Fatalf("user_id: want hashed value got=%q", hashed)
	}
	if out[5] != "REPORTING" {
		t.Fatalf("stage: want=REPORTING got=%v", out[5])
	}
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestHashValueIsStable(t *testing.T) {
	if hashValue("same") != hashValue("same") {
		t.Fatalf("hash not stable")
	}
	if hashValue("") != "" {
		t.Fatalf("empty input should hash to empty")
	}
}
