// Package handler provides the HTTP request handlers for fp4.
//
// Every JSON response uses the Response envelope. Handlers translate
// domain errors into status codes with errorCodeToHTTPStatus and never
// expose error details beyond the offending argument name.
package handler
