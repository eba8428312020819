// main is the entry point for the loadcompare CLI.
package main

import (
	"github.com/huangsam/loadcompare/cmd"
	"github.com/huangsam/loadcompare/internal/contract"
)

func main() {
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
