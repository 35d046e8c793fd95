// Package main はアプリケーションのエントリーポイントを提供します。
package main

import (
	"os"

	"github.com/stsysd/taskboard/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
