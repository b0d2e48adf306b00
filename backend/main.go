package main

import "medadmin/m/backend/cmd"

func main() {
	cmd.Execute()
}
