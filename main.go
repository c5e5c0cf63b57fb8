package main

import (
	"github.com/axellelanca/redirector/cmd"
	_ "github.com/axellelanca/redirector/cmd/cli"
	_ "github.com/axellelanca/redirector/cmd/server"
)

func main() {
	cmd.Execute()
}
