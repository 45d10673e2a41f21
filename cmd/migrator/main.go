package main

import (
	"github.com/socialdb/migrator/cmd"
)

func main() {
	cmd.Execute()
}
