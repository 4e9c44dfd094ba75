/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/crunchybytes/cmd/crunchy/cmd"

func main() {
	cmd.Execute()
}
