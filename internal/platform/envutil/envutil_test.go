package envutil

import (
	"reflect"
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("CATALOG_TEST_INT", "abc")
	if got := Int(nil, "CATALOG_TEST_INT", 7); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("CATALOG_TEST_INT", " 42 ")
	if got := Int(nil, "CATALOG_TEST_INT", 7); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
}

func TestStringBlankIsUnset(t *testing.T) {
	t.Setenv("CATALOG_TEST_STR", "   ")
	if got := String(nil, "CATALOG_TEST_STR", "def"); got != "def" {
		t.Fatalf("String: want=%q got=%q", "def", got)
	}
}

func TestBoolAndDuration(t *testing.T) {
	t.Setenv("CATALOG_TEST_BOOL", "on")
	if !Bool(nil, "CATALOG_TEST_BOOL", false) {
		t.Fatalf("Bool: want=true")
	}
	t.Setenv("CATALOG_TEST_DUR", "15")
	if got := Duration(nil, "CATALOG_TEST_DUR", time.Second); got != 15*time.Second {
		t.Fatalf("Duration: want=15s got=%s", got)
	}
	t.Setenv("CATALOG_TEST_DUR", "2m")
	if got := Duration(nil, "CATALOG_TEST_DUR", time.Second); got != 2*time.Minute {
		t.Fatalf("Duration: want=2m got=%s", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("CATALOG_TEST_LIST", "Rock, Pop,,Jazz ")
	got := List(nil, "CATALOG_TEST_LIST", nil)
	want := []string{"Rock", "Pop", "Jazz"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List: want=%v got=%v", want, got)
	}
}
