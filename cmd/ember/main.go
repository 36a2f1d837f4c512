// Package main provides the Ember device-memory runtime CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ember-compute/ember/backend/cuda"
	"github.com/ember-compute/ember/backend/webgpu"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Ember %s\n", version)
			return
		case "devices":
			printDevices()
			return
		}
	}

	fmt.Println("Ember - Device Memory Runtime for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  devices    Probe available compute backends")
}

func printDevices() {
	fmt.Println("Compute backends:")

	if cuda.IsAvailable() {
		if ctx, err := cuda.New(0); err == nil {
			fmt.Printf("  cuda:   available (%s)\n", ctx.DeviceName())
			ctx.Close()
		} else {
			fmt.Printf("  cuda:   driver present, init failed: %v\n", err)
		}
	} else {
		fmt.Println("  cuda:   not available")
	}

	if webgpu.IsAvailable() {
		if b, err := webgpu.New(); err == nil {
			fmt.Printf("  webgpu: available (%s)\n", b.Name())
			b.Release()
		} else {
			fmt.Printf("  webgpu: adapter present, init failed: %v\n", err)
		}
	} else {
		fmt.Println("  webgpu: not available")
	}

	fmt.Println("  cpu:    available (host memory)")
}
