// Package main provides the entry point for the stepwise server.
//
//go:generate swag init --generalInfo main.go --dir ./,../../pkg/api --output ../../internal/apidocs --outputTypes go --packageName apidocs --parseDependency
package main

import (
	"fmt"
	"os"

	_ "github.com/iamharada/stepwise-system/internal/apidocs" // register swagger docs
	"github.com/iamharada/stepwise-system/internal/cli"
	"github.com/iamharada/stepwise-system/internal/server"
)

//	@title						stepwise API
//	@version					1.0
//	@description				Student-facing API of the stepwise coding-practice backend: sessions, code execution, advice and the activity log.
//	@BasePath					/
//	@securityDefinitions.apikey	SessionCookie
//	@in							header
//	@name						Cookie
//	@description				Session cookie set by /login (stepwise_session=...).

// Version information, set via ldflags during build.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	server.Version = version
	root := cli.NewRootCmd(fmt.Sprintf("%s (commit: %s)", version, commit))
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
