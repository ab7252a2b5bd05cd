package main

import "github.com/JonMunkholm/linkbase/cmd/linkbase/cmd"

func main() {
	cmd.Execute()
}
