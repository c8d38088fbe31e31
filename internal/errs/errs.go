// Package errs defines the error shapes returned to API clients.
//
// Every failure leaves the service as an HTTPError JSON body, with
// field-level entries when a form fails validation.
package errs
