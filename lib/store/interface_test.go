package store

import (
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want RetCode
	}{
		{nil, RetCSuccess},
		{NewError(RetCKeyExists, "exists"), RetCKeyExists},
		{fmt.Errorf("wrapped: %w", NewError(RetCKeyNotFound, "missing")), RetCKeyNotFound},
		{fmt.Errorf("plain"), RetCInternalError},
	}
	for _, tc := range tests {
		if got := Code(tc.err); got != tc.want {
			t.Errorf("Code(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestErrorString(t *testing.T) {
	err := NewError(RetCKeyNotFound, `key "a" not found`)
	want := `KVStoreError (code KeyNotFound): key "a" not found`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if RetCode(99).String() != "Unknown" {
		t.Errorf("unexpected name for an unknown code")
	}
}
