// Package commands defines the braid CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init           Create (or recover) the local device identity
//   - fingerprint    Print the identity fingerprint
//   - register       Generate pre-keys and publish them to a relay
//   - start-session  Establish a session with a peer device
//   - send           Encrypt and send a message
//   - recv           Fetch and decrypt queued messages
//   - group create   Create a sender-key group and distribute the chain
//   - group send     Send a message to a group
//
// # Implementation
//
// The root command merges flags with an optional config.yaml in the home
// directory and builds the dependency graph (stores, services, relay client)
// before any subcommand runs.
package commands
