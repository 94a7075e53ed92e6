// Package api hosts the HTTP server, middleware, and REST handlers. Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/calendar, /v1/results/{year} and /v1/standings/{kind}/{year}.
//   - DELETE /v1/cache to drop cached payloads.
//   - /mcp for the streamable HTTP tool transport, when configured.
package api
