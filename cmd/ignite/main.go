// Command ignite is a thin CLI wrapper over the ignite key/value store,
// intended for scripting and manual inspection of a database directory
// rather than as a long-running server.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:]))
}
