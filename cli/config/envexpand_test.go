package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("STRATA_SET", "real")
	t.Setenv("STRATA_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set", "value: ${STRATA_SET}", "value: real"},
		{"unset", "value: ${STRATA_UNSET_12345}", "value: "},
		{"fallback when unset", "value: ${STRATA_UNSET_12345:-fallback}", "value: fallback"},
		{"fallback when empty", "value: ${STRATA_EMPTY:-fallback}", "value: fallback"},
		{"fallback ignored", "value: ${STRATA_SET:-fallback}", "value: real"},
		{"required set", "value: ${STRATA_SET:?bucket}", "value: real"},
		{"several", "${STRATA_SET}:${STRATA_UNSET_12345:-x}", "real:x"},
		{"no references", "no variables here", "no variables here"},
		{"bare dollar", "cost: $5", "cost: $5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnv(tt.input)
			if err != nil {
				t.Fatalf("ExpandEnv failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandEnv_Required(t *testing.T) {
	t.Setenv("STRATA_EMPTY", "")

	_, err := ExpandEnv("path: ${STRATA_EMPTY:?toc bucket}\ntoken: ${STRATA_UNSET_12345:?}")
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("err = %v, want ErrMissingEnv", err)
	}
	for _, want := range []string{"STRATA_EMPTY (toc bucket)", "STRATA_UNSET_12345 (not set)"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestExpandEnv_NestedInYAML(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "abc")
	t.Setenv("TOC_BUCKET", "well-logs")

	input := `storage:
  backend: s3
  path: ${TOC_BUCKET:?}/toc
adapter:
  headers:
    Authorization: Bearer ${HOOK_TOKEN}`

	got, err := ExpandEnv(input)
	if err != nil {
		t.Fatalf("ExpandEnv failed: %v", err)
	}
	want := `storage:
  backend: s3
  path: well-logs/toc
adapter:
  headers:
    Authorization: Bearer abc`

	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestLoad_MissingRequiredEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strata.yaml")
	doc := "storage:\n  backend: s3\n  path: ${STRATA_UNSET_12345:?toc bucket}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrMissingEnv) {
		t.Errorf("err = %v, want ErrMissingEnv", err)
	}
}
