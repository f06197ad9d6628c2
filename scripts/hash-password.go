// Command hash-password prints a bcrypt hash of its argument, using the same
// cost the server applies, for seeding teacher or admin rows in Postgres.
package main

import (
	"fmt"
	"os"

	"github.com/rollcall/attendance-server-go/internal/util"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/hash-password.go <password>")
		os.Exit(1)
	}

	hash, err := util.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
