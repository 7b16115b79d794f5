/*
 *  main.go
 *  cmd
 *
 *  Created by Haibao Tang on 03/09/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package main

import (
	"log"

	"github.com/op/go-logging"
	"github.com/tanghaibao/hicomp"
)

// main is the entrypoint for the entire program, routes to commands
func main() {
	logging.SetBackend(hicomp.BackendFormatter)
	hicomp.SetVerbose(false)
	err := hicomp.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
