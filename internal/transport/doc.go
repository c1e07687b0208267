// Package transport runs commands on and moves files to and from an
// instance.
//
// SSH is the only shipped transport. It establishes its connection lazily on
// first use, waits for the daemon with exponential backoff, and reuses the
// connection until Close. Commands are prefixed with Config.Prefix (typically
// "sudo ") so that non-root logins can still manage the instance.
//
// Host key verification is disabled unless Config.HostKeyCallback is set;
// the instances are created moments before they are contacted.
package transport
