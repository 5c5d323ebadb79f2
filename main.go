package main

import "automark_backend/internals/commands"

func main() {
	commands.Execute()
}
