// Package cli implements the accountctl command line tool.
//
// The tool drives a single account operation against a metaverse authority:
// logging in with the password grant, logging out, refreshing the profile or
// wallet balance, and generating a fresh keypair.  It prints the first
// lifecycle notification raised by the operation and exits.
package cli
