package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSeatTokenRoundTrip(t *testing.T) {
	a := NewAuth(nil, "test-secret")
	tok, err := a.IssueSeatToken("sess-1", 3)
	if err != nil {
		t.Fatal(err)
	}
	sid, h, err := a.ValidateSeatToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if sid != "sess-1" || h != 3 {
		t.Errorf("got (%s, %d), want (sess-1, 3)", sid, h)
	}
}

func TestSeatTokenWrongSecret(t *testing.T) {
	tok, _ := NewAuth(nil, "one").IssueSeatToken("s", 0)
	if _, _, err := NewAuth(nil, "two").ValidateSeatToken(tok); err == nil {
		t.Error("token signed with another secret should not validate")
	}
	if _, _, err := NewAuth(nil, "one").ValidateSeatToken("not.a.token"); err == nil {
		t.Error("garbage should not validate")
	}
}

func TestSecretPersistsInDatabase(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	tok, _ := NewAuth(db, "").IssueSeatToken("s", 1)
	if _, h, err := NewAuth(db, "").ValidateSeatToken(tok); err != nil || h != 1 {
		t.Errorf("token from a restarted server: handle %d, %v", h, err)
	}
}

func TestRoomPassword(t *testing.T) {
	a := NewAuth(nil, "x")
	if err := a.CheckRoomPassword("", "anything", "1.2.3.4"); err != nil {
		t.Errorf("public room: %v", err)
	}

	hash, err := HashRoomPassword("meow")
	if err != nil {
		t.Fatal(err)
	}
	if err := a.CheckRoomPassword(hash, "meow", "1.2.3.4"); err != nil {
		t.Errorf("right password: %v", err)
	}
	if err := a.CheckRoomPassword(hash, "woof", "1.2.3.4"); err == nil {
		t.Error("wrong password accepted")
	}

	if _, err := HashRoomPassword(strings.Repeat("x", maxPasswordLen+1)); err == nil {
		t.Error("expected error for an overlong password")
	}
}

func TestRoomPasswordRateLimit(t *testing.T) {
	a := NewAuth(nil, "x")
	hash, _ := HashRoomPassword("meow")
	for i := 0; i < maxJoinAttempts; i++ {
		a.CheckRoomPassword(hash, "woof", "5.6.7.8")
	}
	err := a.CheckRoomPassword(hash, "meow", "5.6.7.8")
	if err == nil || !strings.Contains(err.Error(), "too many") {
		t.Errorf("got %v, want rate limit", err)
	}
	if err := a.CheckRoomPassword(hash, "meow", "9.9.9.9"); err != nil {
		t.Errorf("other address limited too: %v", err)
	}
}
