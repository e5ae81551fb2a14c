// Package cli constructs the depbump command-line interface, wiring the
// Cobra command hierarchy, the layered configuration loader, structured
// logging and the console presenter shared by every subcommand.
package cli
