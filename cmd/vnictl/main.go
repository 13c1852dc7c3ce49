// vnictl -- VXLAN VNI filtering management over rtnetlink.
package main

import "github.com/dantte-lp/vnictl/cmd/vnictl/commands"

func main() {
	commands.Execute()
}
