//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package db provides database connection management for pgedge-dwhload.
package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-dwhload/internal/logging"
)

// ApplicationName is reported to the server for every session.
const ApplicationName = "pgedge-dwhload"

// ParseConfig parses connString and applies the session settings every run
// uses. A zero statementTimeout leaves the server default in place.
func ParseConfig(connString string, statementTimeout time.Duration) (*pgx.ConnConfig, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if _, ok := config.RuntimeParams["application_name"]; !ok {
		config.RuntimeParams["application_name"] = ApplicationName
	}
	if statementTimeout > 0 {
		config.RuntimeParams["statement_timeout"] = strconv.FormatInt(statementTimeout.Milliseconds(), 10)
	}

	return config, nil
}

// Connect opens the single connection a run submits its statements on.
func Connect(ctx context.Context, connString string, statementTimeout time.Duration) (*pgx.Conn, error) {
	config, err := ParseConfig(connString, statementTimeout)
	if err != nil {
		return nil, err
	}

	logging.Debug().
		Str("host", config.Host).
		Uint16("port", config.Port).
		Str("database", config.Database).
		Str("user", config.User).
		Msg("Connecting to database")

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Str("host", config.Host).
		Str("database", config.Database).
		Msg("Connected to database")

	return conn, nil
}
