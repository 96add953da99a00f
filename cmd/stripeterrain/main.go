package main

import "github.com/MeKo-Tech/stripeterrain/internal/cmd"

func main() {
	cmd.Execute()
}
