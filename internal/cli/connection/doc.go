// Package connection provides the HTTP client fp4-cli uses to talk to an
// fp4 server.
//
// Responses use the server's JSON envelope. ParseResponse unwraps the data
// field into a target value and turns error envelopes into Go errors that
// keep the server's error code.
package connection
