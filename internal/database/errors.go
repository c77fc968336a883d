// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package database

import (
	"database/sql"
	"errors"
	"io"

	"github.com/tomtom215/reviewscope/internal/logging"
)

// ErrNotFound is returned when a keyed lookup matches no row.
var ErrNotFound = errors.New("not found")

// closeWithLog closes a resource and logs any error.
// Use this for cleanup where errors should be acknowledged but not fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// rollbackQuietly rolls back a transaction whose error has already been reported.
func rollbackQuietly(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Warn().Err(err).Msg("Failed to roll back transaction")
	}
}
