package main

import "github.com/MikeSquared-Agency/Journal/internal/cli"

func main() {
	cli.Execute()
}
