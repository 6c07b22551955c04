// Command hbctl is a terminal client for HeartBridge. It talks to the
// configured document store directly, the same way the web client does, and
// keeps the signed-in identity in a small YAML preferences file.
package main

import (
	"fmt"
	"os"
)

func main() {
	a := newApp(os.Stdout)
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", displayError(err))
		os.Exit(1)
	}
}
