// Package main is the entry point for the egr CLI tool, which scores Valorant
// player rounds with a pre-trained sequence model and explores the results.
package main

import "github.com/pable/valorant-egr/cmd"

func main() {
	cmd.Execute()
}
