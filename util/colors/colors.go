// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package colors

import (
	"fmt"
	"os"
	"regexp"
)

var Red = "\033[31;1m"
var Yellow = "\033[33;1m"
var Mint = "\033[38;5;48;1m"
var Grey = "\033[90m"

var Clear = "\033[0;0m"

// Enabled is false when stdout isn't a terminal.
var Enabled = isTerminal(os.Stdout)

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Paint wraps the printed value in color if output is colored.
func Paint(color string, value interface{}) string {
	if !Enabled {
		return fmt.Sprint(value)
	}
	return fmt.Sprint(color, value, Clear)
}

func Uncolor(text string) string {
	uncolor := regexp.MustCompile("\x1b\\[([0-9]+;)*[0-9]+m")
	unwhite := regexp.MustCompile(`\s+`)

	text = uncolor.ReplaceAllString(text, "")
	return unwhite.ReplaceAllString(text, " ")
}
