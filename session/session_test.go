package session

import (
	"testing"

	"github.com/aluiziolira/go-fetch-episodes/config"
)

func TestSessionSharesIdentity(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Username = "listener"
	cfg.Password = "hunter2"

	sess, err := New(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	if sess.Client().GetClient().Jar != sess.Jar() {
		t.Fatalf("page client does not use the session cookie jar")
	}
	if sess.StreamClient().GetClient().Jar != sess.Jar() {
		t.Fatalf("stream client does not use the session cookie jar")
	}
	if sess.Client().GetClient().Jar != sess.StreamClient().GetClient().Jar {
		t.Fatalf("clients carry different identities")
	}
}

func TestStreamClientHasNoOverallTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Username = "listener"
	cfg.Password = "hunter2"

	sess, err := New(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	if sess.StreamClient().GetClient().Timeout != 0 {
		t.Fatalf("stream client timeout = %v, want none", sess.StreamClient().GetClient().Timeout)
	}
	if sess.Client().GetClient().Timeout != cfg.Timeout {
		t.Fatalf("page client timeout = %v, want %v", sess.Client().GetClient().Timeout, cfg.Timeout)
	}
}
