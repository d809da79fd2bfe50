package main

import (
	"fmt"
	"os"

	"shopfloor/internal/app"
	"shopfloor/internal/cli"
)

func main() {
	if err := cli.Execute(app.New, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
