package main

import "github.com/jayteealao/gitbean/cmd"

func main() {
	cmd.Execute()
}
