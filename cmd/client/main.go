package main

import "habitkeeper/cmd/client/cmd"

func main() {
	cmd.Execute()
}
