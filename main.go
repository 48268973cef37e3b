package main

import "github.com/frahmantamala/giving-api/cmd"

func main() {
	cmd.Execute()
}
