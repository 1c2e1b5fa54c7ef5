/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/drivelog/cmd/drivelog/cmd"
)

func main() {
	cmd.Execute()
}
