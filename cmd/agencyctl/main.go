package main

import "github.com/caffeinepub/agencydesk/cmd/agencyctl/cmd"

func main() {
	cmd.Execute()
}
