// Package retry waits for an operation to succeed with exponential backoff.
//
// [Do] is used by the SSH transport to wait for a freshly started instance's
// daemon to accept connections. Errors wrapped with [Fatal] stop the loop
// immediately.
package retry
