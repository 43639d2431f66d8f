package main

import "github.com/hazteunsitio/hz-backdoor-monitor/cmd/hzcheck"

func main() { hzcheck.Execute() }
