// mergecoord decides whether a pull request may be merged safely, merges it
// exactly once, and provides a rollback path.
package main

import (
	"os"

	"github.com/octoflow/mergecoord/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
