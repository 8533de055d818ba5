package main

import (
	"github.com/solmint/marketd/internal/cli"

	_ "github.com/solmint/marketd/internal/core/tx/market"
	_ "github.com/solmint/marketd/internal/core/tx/system"
)

func main() {
	cli.Execute()
}
