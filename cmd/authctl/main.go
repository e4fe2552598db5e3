package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/authctl"
)

func main() {
	app := authctl.NewApp(os.Stdin, os.Stdout)
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		if !errors.Is(err, authctl.ErrUsage) {
			fmt.Fprintln(os.Stderr, "authctl:", err)
		}
		os.Exit(2)
	}
}
