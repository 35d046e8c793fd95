//go:build tools

// db/*.sql.go は sqlc generate で生成します。
package main

import (
	_ "github.com/sqlc-dev/sqlc/cmd/sqlc"
)
