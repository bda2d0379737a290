package main

import "github.com/oshokin/rootfs-sync/cmd/rootfs-sync/cmd"

func main() {
	cmd.Execute()
}
