package logger

import (
	"strings"
	"testing"
)

func TestRedactorMasksSensitiveKeys(t *testing.T) {
	r := redactor{enabled: true}
	out := r.kvs([]interface{}{"client_id", "abc123", "track", "Song1"})
	if len(out) != 4 {
		t.Fatalf("len: want=4 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("client_id: want redacted got=%v", out[1])
	}
	if out[3] != "Song1" {
		t.Fatalf("track: want=%q got=%v", "Song1", out[3])
	}
}

func TestRedactorStripsDSNPassword(t *testing.T) {
	r := redactor{enabled: true}
	out := r.kvs([]interface{}{"dsn", "postgres://seeder:hunter2@db:5432/catalog"})
	got, _ := out[1].(string)
	if strings.Contains(got, "hunter2") {
		t.Fatalf("dsn: password leaked in %q", got)
	}
	if !strings.Contains(got, "seeder") || !strings.Contains(got, "db:5432") {
		t.Fatalf("dsn: unexpected rewrite %q", got)
	}
}

func TestRedactorDisabledPassesThrough(t *testing.T) {
	r := redactor{enabled: false}
	out := r.kvs([]interface{}{"password", "pw"})
	if out[1] != "pw" {
		t.Fatalf("password: want passthrough got=%v", out[1])
	}
}

func TestRedactorHashesEmails(t *testing.T) {
	r := redactor{enabled: true, salt: "s"}
	out := r.kvs([]interface{}{"email", "a@b.c"})
	got, _ := out[1].(string)
	if !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+12 {
		t.Fatalf("email: unexpected hash %q", got)
	}
}

func TestRedactorOddKeyValues(t *testing.T) {
	r := redactor{enabled: true}
	out := r.kvs([]interface{}{"album", "Alpha", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("odd kvs: got=%v", out)
	}
}
