// Command launcher installs the planner's declared dependencies and then
// starts the planner server bound to the configured address and port.
// Its exit status mirrors the installer's (on failure) or the server's.
package main

func main() {
	Execute()
}
