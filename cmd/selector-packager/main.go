package main

import "github.com/photoselector/shipper/cmd/selector-packager/cmd"

func main() {
	cmd.Execute()
}
