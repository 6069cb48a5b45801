//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provides utilities for unit and integration testing.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	// ConnEnv names the environment variable holding the connection string
	// of an existing PostgreSQL server to test against.
	ConnEnv = "PGEDGE_TEST_CONN"

	// TestDBPrefix is the prefix for test databases.
	TestDBPrefix = "dwhload_test_"

	// PostgresImage is the image started when no server is configured.
	PostgresImage = "postgres:16-alpine"
)

// PostgresAvailable checks if the server named by PGEDGE_TEST_CONN is
// reachable. Returns the connection string if so, empty string otherwise.
func PostgresAvailable() string {
	connStr := os.Getenv(ConnEnv)
	if connStr == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return ""
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		return ""
	}
	return connStr
}

// StartPostgres starts a disposable PostgreSQL container and returns its
// connection string. The container is terminated when the test finishes.
// The test is skipped when no container runtime is available.
func StartPostgres(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("dwh"),
		postgres.WithUsername("dwhuser"),
		postgres.WithPassword("dwhpass"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("failed to cleanup postgres container: %v", err)
		}
	})

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get container connection string: %v", err)
	}
	return connStr
}

// TestDatabase returns a connection string for an empty database. With
// PGEDGE_TEST_CONN set, a fresh database is created on that server and
// dropped after a passing test; otherwise a container is started.
func TestDatabase(t *testing.T) string {
	t.Helper()

	base := PostgresAvailable()
	if base == "" {
		if os.Getenv(ConnEnv) != "" {
			t.Skipf("%s is set but the server is not reachable", ConnEnv)
		}
		return StartPostgres(t)
	}

	connStr := CreateTestDB(t, base)
	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("Test failed - keeping database %s for diagnostics", GetDBNameFromConnStr(connStr))
			return
		}
		DropTestDB(t, base, GetDBNameFromConnStr(connStr))
	})
	return connStr
}

// CreateTestDB creates a randomly named database on the server at
// baseConnStr and returns its connection string.
func CreateTestDB(t *testing.T, baseConnStr string) string {
	t.Helper()

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		t.Fatalf("Failed to generate random database name: %v", err)
	}
	dbName := TestDBPrefix + hex.EncodeToString(randomBytes)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, baseConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// Build the connection string by hand since ConnString() doesn't
	// reflect changes made to the parsed Database.
	cfg, err := pgx.ParseConfig(baseConnStr)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port))),
		Path:   "/" + dbName,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	if cfg.TLSConfig == nil {
		u.RawQuery = "sslmode=disable"
	}
	return u.String()
}

// DropTestDB drops the test database.
func DropTestDB(t *testing.T, baseConnStr, dbName string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, baseConnStr)
	if err != nil {
		t.Logf("Warning: Failed to connect to drop test database: %v", err)
		return
	}
	defer conn.Close(ctx)

	_, _ = conn.Exec(ctx, `
        SELECT pg_terminate_backend(pid)
        FROM pg_stat_activity
        WHERE datname = $1 AND pid <> pg_backend_pid()
    `, dbName)

	_, err = conn.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", pgx.Identifier{dbName}.Sanitize()))
	if err != nil {
		t.Logf("Warning: Failed to drop test database: %v", err)
	}
}

// GetDBNameFromConnStr extracts the database name from a connection string.
func GetDBNameFromConnStr(connStr string) string {
	cfg, err := pgx.ParseConfig(connStr)
	if err != nil {
		return ""
	}
	return cfg.Database
}

// ConnectTestDB connects to a test database and closes the connection when
// the test finishes.
func ConnectTestDB(t *testing.T, connStr string) *pgx.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(context.Background()) })
	return conn
}
