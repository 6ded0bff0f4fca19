package main

import (
	"os"

	"github.com/keremd/chainrunner/internal/app"
)

func main() {
	os.Exit(app.NewRunner().Run(os.Args[1:]))
}
