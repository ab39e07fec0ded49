package main

import "github.com/ValentinKolb/mmkv/cmd"

func main() {
	cmd.Execute()
}
