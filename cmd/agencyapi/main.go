package main

import "github.com/caffeinepub/agencydesk/cmd/agencyapi/cmd"

func main() {
	cmd.Execute()
}
