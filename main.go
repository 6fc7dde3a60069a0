package main

import "github.com/keyguard/keyguard/cmd/keyguard"

func main() { keyguard.Execute() }
