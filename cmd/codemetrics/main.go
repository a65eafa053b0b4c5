// main is the entry point of the codemetrics CLI.
package main

import (
	"github.com/codemetrics/codemetrics/cmd"
	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()

	if err := cmd.Execute(); err != nil {
		iocache.CloseStores()
		contract.LogFatal("Command failed", err)
	}
}
