package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	applog "invoicing/internal/log"
)

func TestCloseAllRunsEveryCloser(t *testing.T) {
	var buf bytes.Buffer
	cfg := applog.DefaultConfig()
	cfg.Output = &buf
	logger := applog.New(cfg)

	var order []string
	failing := func() error {
		order = append(order, "sessions")
		return errors.New("redis: client is closed")
	}
	db := func() error {
		order = append(order, "db")
		return nil
	}

	closeAll(logger, failing, db, noopClose)

	if strings.Join(order, ",") != "sessions,db" {
		t.Fatalf("close order = %v, want sessions then db", order)
	}
	if !strings.Contains(buf.String(), "redis: client is closed") {
		t.Fatalf("close failure not logged: %q", buf.String())
	}
}
