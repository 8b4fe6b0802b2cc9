// Command ndepctl is the operator CLI of the evidence custody engine.
package main

import "github.com/heartmarshall/ndep-backend/internal/cli"

func main() {
	cli.Execute()
}
