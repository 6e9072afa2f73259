// Command intentgate is the operator-facing CLI for the intent-gated
// governance middleware: catalog inspection, lifecycle transitions, ledger
// queries, and a dry-run gate check, all layered over the same
// internal/hook engine a host process embeds directly.
package main

func main() {
	Execute()
}
