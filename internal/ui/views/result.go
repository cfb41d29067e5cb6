package views

import (
	"github.com/hance08/tefpos/internal/tef"
	"github.com/hance08/tefpos/internal/utils"
	"github.com/pterm/pterm"
)

// RenderResult shows one completed exchange: approved or denied.
func RenderResult(res *tef.Result) error {
	if !res.Approved {
		pterm.Error.Printf("DENIED (code %s)\n", res.Code)
		if res.Message != "" {
			pterm.Println(pterm.Red(res.Message))
		}
		return nil
	}

	pterm.Success.Println("APPROVED")

	tableData := pterm.TableData{
		{"Request ID", res.RequestID},
		{"Operation", string(res.Kind)},
	}
	if res.AmountCents > 0 {
		tableData = append(tableData, []string{"Amount", utils.FormatBRL(res.AmountCents)})
	}
	if res.Network != "" {
		tableData = append(tableData, []string{"Network", res.Network})
	}
	if res.NSU != "" {
		tableData = append(tableData, []string{"NSU", res.NSU})
	}
	if res.MultiTx {
		tableData = append(tableData, []string{"Split payment", "yes"})
	}
	if res.Message != "" {
		tableData = append(tableData, []string{"Message", res.Message})
	}

	return pterm.DefaultTable.WithData(tableData).Render()
}

// RenderFailure shows a protocol failure. A response timeout is visually
// distinct from a denial: the payment may have gone through at the engine
// and needs manual verification.
func RenderFailure(err error) {
	kind := tef.ClassifyFailure(err)

	switch kind {
	case tef.FailureEngineUnresponsive:
		pterm.Error.Println("TEF engine did not acknowledge the request")
		pterm.Println(pterm.Yellow("Check that the CTFClient is running. Safe to retry."))
	case tef.FailureResponseTimeout:
		pterm.Warning.Println("UNKNOWN OUTCOME - manual verification required")
		pterm.Println(pterm.Yellow("The engine acknowledged the request but never delivered a result."))
		pterm.Println(pterm.Yellow("The payment may or may not have been processed. Verify on the terminal"))
		pterm.Println(pterm.Yellow("before retrying; do not treat this as a denial."))
	default:
		pterm.Error.Printf("I/O failure talking to the TEF directories: %v\n", err)
	}

	if id := tef.FailedRequestID(err); id != "" {
		pterm.Printf("Request ID: %s\n", id)
	}
}
