// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package history keeps an audit trail of configuration backups and
// configuration changes in a local SQLite database.
//
// The database is opened in WAL mode with a single connection, which is all
// a one-request-at-a-time MCP server needs:
//
//	store, err := history.Open("netauto.db")
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	changes, err := store.Changes(ctx, "R1", 10)
package history
