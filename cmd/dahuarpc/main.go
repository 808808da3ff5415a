package main

import (
	"github.com/tansive/dahuarpc/internal/cli"
)

func main() {
	cli.Execute()
}
