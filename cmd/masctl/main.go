// Command masctl drives the job-search service from a terminal: it runs
// workflows and inspects sessions, applications and the job memory.
package main

import "os"

func main() {
	if err := newRootCmd(openFacade).Execute(); err != nil {
		os.Exit(1)
	}
}
