package main

import "github.com/Yates-Labs/gamebible/cmd"

func main() {
	cmd.Execute()
}
