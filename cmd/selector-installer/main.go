package main

import "github.com/photoselector/shipper/cmd/selector-installer/cmd"

func main() {
	cmd.Execute()
}
