// Command storyctl runs StoryKeeper administration tasks against the configured database
package main

import "github.com/storykeeper/backend/cmd/storyctl/commands"

func main() {
	commands.Execute()
}
