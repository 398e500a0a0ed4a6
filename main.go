/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/streamfold/fanout-bench/cmd"

func main() {
	cmd.Execute()
}
