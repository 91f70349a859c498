package main

import "github.com/Yates-Labs/beacon/cmd"

func main() {
	cmd.Execute()
}
