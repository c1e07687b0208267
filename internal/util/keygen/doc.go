// Package keygen generates SSH key pairs for instance access.
//
// Private keys are PEM encoded and public keys use the OpenSSH
// authorized_keys format, so the public half can be registered with the
// compute provider and the private half handed to the SSH transport.
package keygen
