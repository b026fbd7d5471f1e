// Command gitnotify sends HTML email notifications for pushed commits.
package main

import (
	"os"

	"github.com/kilupskalvis/gitnotify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
