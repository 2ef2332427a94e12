// Package httpserver provides the HTTP/HTTPS server for fp4.
//
// The JSON API is served with stdlib net/http and Go 1.22 route patterns:
//
//   - Auth endpoints: /auth/login, /auth/verify, /auth/logout, /me
//   - Seizure endpoints: /seizures, /seizures/summary
//   - Health endpoints: /health, /ready, /metrics
//
// Every request passes through Recover, RequestID, RealIP, CORS, RateLimit,
// Session and Audit in that order. Routes that need a caller identity are
// additionally wrapped in RequireSession.
package httpserver
