// Package keyguard provides the command-line interface for the Keyguard
// tool. It configures subcommands (scan, ci, slack, providers), parses
// flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/keyguard/keyguard/cmd/keyguard"
//	func main() { keyguard.Execute() }
package keyguard
