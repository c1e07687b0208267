// Package node models the node record fogprov reads and mutates, and the
// stores that persist it.
//
// The record is owned by the caller. fogprov only understands the keys under
// provisioner_options and provisioner_output; everything else is carried
// through load and save untouched.
package node
