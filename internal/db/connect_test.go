package db

import (
	"context"
	"os"
	"testing"
)

func TestConnectRejectsBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "postgres://%zz"); err == nil {
		t.Fatal("expected parse error")
	}
}

// runs only if DATABASE_URL is set
func TestConnect(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping")
	}
	pool, err := Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	pool.Close()
}
