package main

import "github.com/PredictChain/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
