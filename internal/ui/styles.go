package ui

import (
	"fmt"

	"github.com/pterm/pterm"
)

// PrintL1Title opens an interactive flow (new payment, void) with a banner.
func PrintL1Title(format string, a ...interface{}) {
	style := pterm.NewStyle(pterm.BgLightBlue, pterm.FgBlack, pterm.Bold)
	style.Printfln(" %s ", fmt.Sprintf(format, a...))
}

// PrintL2Title marks a step inside a flow, like the batch decision in
// resolve.
func PrintL2Title(format string, a ...interface{}) {
	style := pterm.NewStyle(pterm.FgLightBlue, pterm.Bold)
	style.Printfln("» %s", fmt.Sprintf(format, a...))
}
