package lib

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", base, 1},
		{"coded", WithCode(2, base), 2},
		{"wrapped coded", fmt.Errorf("doctor: %w", WithCode(3, base)), 3},
		{"zero code", &CodedError{Err: base}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWithCode(t *testing.T) {
	if WithCode(2, nil) != nil {
		t.Fatal("nil error must stay nil")
	}
	base := errors.New("boom")
	err := WithCode(2, base)
	if !errors.Is(err, base) || err.Error() != "boom" {
		t.Fatalf("WithCode must wrap transparently: %v", err)
	}
}
