package main

import (
	"github.com/matthieukhl/storefront/internal/cmd"
)

func main() {
	cmd.Execute()
}
