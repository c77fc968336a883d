// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Package services adapts server components to suture.Service.
//
// HTTPServerService turns ListenAndServe/Shutdown into a context-driven
// Serve. JobService reruns precompute jobs on a ticker and never returns a
// job failure to the supervisor.
package services
