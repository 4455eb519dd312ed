package main

import "github.com/charlie0129/timetocode-dashboard/cmd/ttc-dashboard/commands"

func main() {
	commands.Execute()
}
