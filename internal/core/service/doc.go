// Package service provides the domain services of fp4.
//
// Services hold the business rules and orchestrate storage, rate limiting,
// session sealing and notification through small interfaces, so each
// collaborator can be replaced in tests:
//
//   - AuthService: magic link issuance, redemption and session cookies
//   - AllowList: the email domain allow-list, reloadable at runtime
//   - SeizureService: authenticated seizure reporting, listing and summary
//
// Services are safe for concurrent use.
package service
