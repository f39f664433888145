package main

import "github.com/arborwatch/unified2spool/cmd/unified2tail/cmd"

func main() {
	cmd.Execute()
}
