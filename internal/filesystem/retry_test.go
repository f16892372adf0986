package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "ESTALE error",
			err:  syscall.ESTALE,
			want: true,
		},
		{
			name: "wrapped ESTALE",
			err:  &os.PathError{Op: "stat", Path: "/data/file", Err: syscall.ESTALE},
			want: true,
		},
		{
			name: "ENOENT error",
			err:  syscall.ENOENT,
			want: false,
		},
		{
			name: "generic error",
			err:  errors.New("something else"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isStaleError(tt.err)
			if got != tt.want {
				t.Errorf("isStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// fastRetryConfig keeps retry tests from sleeping for real.
func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestWithRetry_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := withRetry("test", "/some/path", fastRetryConfig(), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("withRetry returned error: %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestWithRetry_SucceedsAfterStale(t *testing.T) {
	calls := 0
	err := withRetry("test", "/some/path", fastRetryConfig(), func() error {
		calls++
		if calls < 3 {
			return syscall.ESTALE
		}
		return nil
	})

	if err != nil {
		t.Fatalf("withRetry returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestWithRetry_NonRetryableReturnsImmediately(t *testing.T) {
	wantErr := errors.New("permission denied")
	calls := 0
	err := withRetry("test", "/some/path", fastRetryConfig(), func() error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("withRetry error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (no retries for non-stale errors)", calls)
	}
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	config := fastRetryConfig()
	calls := 0
	err := withRetry("test", "/some/path", config, func() error {
		calls++
		return syscall.ESTALE
	})

	if !errors.Is(err, syscall.ESTALE) {
		t.Errorf("withRetry error = %v, want ESTALE", err)
	}
	if calls != config.MaxRetries+1 {
		t.Errorf("fn called %d times, want %d", calls, config.MaxRetries+1)
	}
}

func TestStatWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry returned error: %v", err)
	}
	if info.Size() != int64(len("content")) {
		t.Errorf("Size = %d, want %d", info.Size(), len("content"))
	}
}

func TestStatWithRetry_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	_, err := StatWithRetry(path, DefaultRetryConfig())
	if err == nil {
		t.Fatal("StatWithRetry succeeded for missing file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("error = %v, want not-exist", err)
	}
}

func TestOpenWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := OpenWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry returned error: %v", err)
	}
	defer file.Close()

	buf := make([]byte, 16)
	n, _ := file.Read(buf)
	if string(buf[:n]) != "content" {
		t.Errorf("read %q, want %q", buf[:n], "content")
	}
}

func TestOpenWithRetry_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	_, err := OpenWithRetry(path, DefaultRetryConfig())
	if err == nil {
		t.Fatal("OpenWithRetry succeeded for missing file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("error = %v, want not-exist", err)
	}
}
