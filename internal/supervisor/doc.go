// Package supervisor implements the watch loop: a single-threaded
// poller that restarts the powerdev container whenever its health
// probe reports anything but healthy.
//
// The loop is deliberately bare: no backoff, no failure counting, no
// alerting. It ends when the container disappears or the context is
// cancelled. One health observation produces at most one restart.
package supervisor
