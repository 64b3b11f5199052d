package backend

import (
	"strings"
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "" {
		t.Fatal("hash is empty")
	}
	if !VerifyPassword("hunter2", hash) {
		t.Error("correct password did not verify")
	}
	if VerifyPassword("hunter3", hash) {
		t.Error("wrong password verified")
	}
}

func TestGenerateToken(t *testing.T) {
	token := GenerateToken()
	if !strings.HasPrefix(token, "gg_") {
		t.Fatalf("token %q lacks prefix", token)
	}
	if token == GenerateToken() {
		t.Error("two generated tokens are equal")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	token := GenerateToken()
	if HashToken(token) != HashToken(token) {
		t.Error("hashing the same token twice differs")
	}
	if HashToken(token) == HashToken("other") {
		t.Error("different tokens hash equal")
	}
}
