// Command threadflow serves a supervisor agent that routes chat
// requests to specialist agents over a task board and tabular data
// files.
package main

func main() {
	Execute()
}
