package main

import "github.com/IsbatBInHossain/chess-game-server/internal/cli"

func main() {
	cli.Execute()
}
