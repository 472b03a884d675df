package main

import "github.com/frahmantamala/reservation-management/cmd"

func main() {
	cmd.Execute()
}
