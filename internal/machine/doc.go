// Package machine provides the handle returned for an acquired node: the
// node record, the instance it runs on, a live transport, and the strategy
// that installs and runs the configuration agent.
package machine
