// Package lib groups helpers that do not belong to a single layer:
// background jobs (Asynq), the email client (Resend) and small utilities.
package lib
