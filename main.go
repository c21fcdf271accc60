// Command todo serves the task API and manages tasks from the shell.
//
//	todo serve                          run the HTTP API
//	todo list --status Pending          list matching tasks
//	todo add --title T --description D  create a task
//	todo rm 1712345678901 --yes         delete a task
//
// Storage is selected with STORAGE_BACKEND (file, redis, sqlite, postgres,
// memory); see internal/config for the full set of variables.
package main

import (
	"os"

	"todo-manager/backend/internal/cli"
)

var Version = "dev"

func main() {
	if err := cli.Execute(Version); err != nil {
		os.Exit(1)
	}
}
