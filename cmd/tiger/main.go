// Command tiger authors, packages and replays pre/post-deploy SQL changes.
package main

import "github.com/aqasim81/tiger/internal/cli"

func main() {
	cli.Execute()
}
