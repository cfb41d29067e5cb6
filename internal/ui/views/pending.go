package views

import (
	"fmt"

	"github.com/hance08/tefpos/internal/tef"
	"github.com/hance08/tefpos/internal/utils"
	"github.com/pterm/pterm"
)

// RenderPending lists the approved-but-unresolved transactions of the open
// sale. outstanding < 0 means there is no sale total to report against.
func RenderPending(entries []tef.PendingTransaction, outstanding int64) error {
	if len(entries) == 0 {
		pterm.Info.Println("No pending transactions")
		return nil
	}

	pterm.DefaultSection.Printf("Pending transactions (%d)", len(entries))

	tableData := pterm.TableData{
		{"Request ID", "Kind", "Amount", "Network", "NSU", "Approved at"},
	}
	for _, tx := range entries {
		tableData = append(tableData, []string{
			tx.RequestID,
			string(tx.Kind),
			utils.FormatBRL(tx.AmountCents),
			tx.Network,
			tx.NSU,
			tx.ApprovedAt.Format("2006-01-02 15:04:05"),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Render(); err != nil {
		return fmt.Errorf("failed to render pending table: %w", err)
	}

	if outstanding > 0 {
		pterm.Warning.Printf("Outstanding balance: %s\n", utils.FormatBRL(outstanding))
	} else if outstanding == 0 {
		pterm.Info.Println("Sale fully paid; run 'resolve' to confirm or reverse the batch")
	}

	return nil
}

// RenderResolutions summarizes a batch confirm/reverse.
func RenderResolutions(resolutions []tef.Resolution) error {
	tableData := pterm.TableData{
		{"NSU", "Decision", "Result", "Message"},
	}

	failures := 0
	for _, r := range resolutions {
		result := pterm.Green("accepted")
		message := r.Message
		if r.Err != nil {
			result = pterm.Red(string(tef.ClassifyFailure(r.Err)))
			message = r.Err.Error()
			failures++
		} else if !r.Accepted {
			result = pterm.Red(fmt.Sprintf("refused (code %s)", r.Code))
			failures++
		}

		tableData = append(tableData, []string{r.Pending.NSU, string(r.Decision), result, message})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Render(); err != nil {
		return fmt.Errorf("failed to render resolutions table: %w", err)
	}

	if failures > 0 {
		pterm.Warning.Printf("%d transaction(s) remain unresolved; run 'resolve' again\n", failures)
	} else {
		pterm.Success.Println("All pending transactions resolved")
	}

	return nil
}
