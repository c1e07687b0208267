// Package hcloud is the Hetzner Cloud compute driver.
//
// RealClient implements compute.Client on top of hcloud-go. Every mutating
// call blocks until the API reports the triggered actions as finished, bounded
// by the per-operation timeouts from config.Timeouts:
//
//   - CreateInstance: resolve server type, image, location and SSH keys,
//     create, wait for the create action and its follow-up actions
//   - StartInstance: power on and wait
//   - DestroyInstance: delete and wait, retrying while the server is locked
//   - GetInstance, ListInstances: single lookups bounded by the API timeout
//
// Driver options arrive as the free-form compute_options map from the config
// file and are decoded by ParseOptions.
package hcloud
