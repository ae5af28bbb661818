package main

import "github.com/vivid-lct/ai-trend-monitor/cmd"

func main() {
	cmd.Execute()
}
