package main

import "github.com/tayloree/confere/cmd"

func main() {
	cmd.Execute()
}
