package shared

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestRateLimitError(t *testing.T) {
	t.Run("AsRateLimit through wrapping", func(t *testing.T) {
		err := fmt.Errorf("add items: %w", &RateLimitError{Status: 429, RetryAfter: 3 * time.Second})

		rl, ok := AsRateLimit(err)
		if !ok {
			t.Fatal("expected wrapped rate limit error to be detected")
		}
		if rl.RetryAfter != 3*time.Second {
			t.Errorf("expected retry after 3s, got %v", rl.RetryAfter)
		}
		if !errors.Is(err, ErrRateLimited) {
			t.Error("expected errors.Is(err, ErrRateLimited)")
		}
	})

	t.Run("Other errors", func(t *testing.T) {
		if _, ok := AsRateLimit(ErrAPIRequest); ok {
			t.Error("plain API errors are not rate limits")
		}
	})
}

func TestLogger(t *testing.T) {
	t.Run("level from config", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLoggerFromConfig(&buf, LogConfig{Level: "WARN"})

		l.Info("hidden")
		l.Warn("shown")

		out := buf.String()
		if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
			t.Errorf("unexpected log output: %q", out)
		}
		if l.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", l.GetLevel())
		}
	})

	t.Run("GenerateID is unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct ids")
		}
	})
}

func TestBrowserCommand(t *testing.T) {
	orig := getRuntime
	defer func() { getRuntime = orig }()

	tc := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			getRuntime = func() string { return tt.goos }
			cmd, err := browserCommand("https://accounts.spotify.com/authorize")
			if tt.wantErr {
				if err == nil {
					t.Error("expected unsupported platform error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasSuffix(cmd.Path, tt.want) && cmd.Args[0] != tt.want {
				t.Errorf("expected %s launcher, got %v", tt.want, cmd.Args)
			}
		})
	}
}
