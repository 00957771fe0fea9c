// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Cffs operates on a CFFS flash card image or character device.
//
// Synopsis:
//
//	cffs --device FILE dir [PATTERN...]
//	cffs --device FILE get [PATTERN...]
//	cffs --device FILE put LOCALFILE
//	cffs --device FILE delete PATTERN...
//	cffs --device FILE fsck
//	cffs --device FILE erase
//
// Description:
//
//	dir:    List slots, optionally filtered by glob pattern.
//	get:    Extract matching slots to --out (default ".").
//	put:    Append LOCALFILE's contents as a new slot named after its basename.
//	delete: Logically delete every slot matching any pattern.
//	fsck:   Verify checksums and tail integrity.
//	erase:  Clear the whole device. Prompts for confirmation unless --yes.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/linuxboot/cffs/internal/cli"
)

func confirmOnTTY() bool {
	fmt.Fprint(os.Stderr, "erase the entire device? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

func main() {
	if err := cli.Run(os.Args[1:], os.Stdout, confirmOnTTY); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
