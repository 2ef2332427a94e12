// Package domain defines the core domain models for fp4.
//
// Domain models are plain value objects without IO dependencies.
// This package contains:
//
//   - Account and Identity: the user record and the authenticated caller
//   - Seizure and Substance: reported seizures and their validation rules
//   - PageRequest and SeizureConnection: cursor pagination over seizures
//   - Errors: the closed set of domain error codes
package domain
