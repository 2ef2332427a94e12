// Package command provides the fp4-cli command tree.
//
// Commands fall into two groups. Remote commands (health, auth, me,
// seizures) talk to a running server through the connection package.
// Local commands (secret, token, session, migrate) work offline against
// the same libraries the server uses, for operators and debugging.
package command
