// Command slowcomb looks up permutations and combinations by rank.
package main

import "github.com/mesh-intelligence/slowcomb/internal/cli"

func main() {
	cli.Execute()
}
