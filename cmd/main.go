package main

import "loyaltydesk/backoffice/cmd/commands"

func main() {
	commands.Execute()
}
