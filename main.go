package main

import "github.com/healthplus/backend/cmd"

func main() {
	cmd.Execute()
}
