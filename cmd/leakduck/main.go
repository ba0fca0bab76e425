package main

import (
	"leakduck-backend/cmd/leakduck/commands"
	"leakduck-backend/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
