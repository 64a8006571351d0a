package postgres

import (
	"testing"
	"time"

	"github.com/MrSnakeDoc/rollcall/internal/logger"
)

func TestNewRejectsBadOptions(t *testing.T) {
	valid := ConnectOptions{
		DSN:            "postgres://localhost/rollcall?sslmode=disable",
		ConnectTimeout: time.Second,
		RetryInterval:  10 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
	}

	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"missing dsn", func(o *ConnectOptions) { o.DSN = "" }},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			if _, err := New(opts, logger.New("error", false)); err == nil {
				t.Error("New() should reject the options")
			}
		})
	}
}
