// SPDX-License-Identifier: MIT
package main

import "github.com/skaphos/perfstats/cmd/perfstats"

var execute = perfstats.Execute

func main() {
	execute()
}
