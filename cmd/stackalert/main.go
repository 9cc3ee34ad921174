// Package main provides the CLI entrypoint for stackalert.
package main

func main() {
	Execute()
}
