// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

/*
Package supervisor runs the server's long-lived services under a suture v4
supervisor tree.

	reviewscope
	├── jobs-layer
	│   └── JobService (only when jobs.enabled)
	└── api-layer
	    └── HTTPServerService

Crashed services restart with backoff. Canceling the context passed to
Serve stops every service; services that miss the shutdown timeout are
listed by UnstoppedServiceReport.

Supervisor events go through sutureslog into the zerolog pipeline:

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(srv, addr, timeout, logger))
	err := tree.Serve(ctx)
*/
package supervisor
