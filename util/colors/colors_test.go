// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package colors

import "testing"

func TestPaint(t *testing.T) {
	enabled := Enabled
	defer func() { Enabled = enabled }()

	Enabled = true
	painted := Paint(Mint, "REDEEMED")
	if painted == "REDEEMED" {
		t.Fatal("expected color codes")
	}
	if Uncolor(painted) != "REDEEMED" {
		t.Fatal("uncolor didn't strip codes:", Uncolor(painted))
	}
	Enabled = false
	if Paint(Red, 7) != "7" {
		t.Fatal("disabled colors should print plainly")
	}
}
