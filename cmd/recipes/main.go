package main

import (
	"fmt"
	"os"

	"github.com/eleven-am/recipe-api/internal/cli"
	"github.com/eleven-am/recipe-api/pkg/recipes"
)

// Set at build time with -ldflags "-X main.gitCommit=... -X main.buildDate=..."
var (
	gitCommit = ""
	buildDate = ""
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func Execute() error {
	recipes.SetBuildInfo(gitCommit, buildDate, "")

	cmd := cli.NewRootCommand()
	return cmd.Execute()
}
