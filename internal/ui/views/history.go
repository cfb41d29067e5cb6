package views

import (
	"time"

	"github.com/hance08/tefpos/internal/constants"
	"github.com/hance08/tefpos/internal/store"
	"github.com/hance08/tefpos/internal/utils"
	"github.com/pterm/pterm"
)

// RenderHistory lists journaled transactions, most recent first.
func RenderHistory(txs []*store.TEFTransaction, limit int) error {
	if len(txs) == 0 {
		pterm.Warning.Println("No transactions found")
		return nil
	}

	pterm.DefaultSection.Printf("Showing recent transactions (limit: %d)", limit)

	tableData := pterm.TableData{
		{"Date", "Request ID", "Kind", "Amount", "NSU", "Status", "Message"},
	}

	for _, tx := range txs {
		var coloredStatus string
		switch tx.Status {
		case constants.StatusConfirmed:
			coloredStatus = pterm.Green(tx.Status)
		case constants.StatusPending:
			coloredStatus = pterm.Yellow(tx.Status)
		case constants.StatusDenied, constants.StatusReversed, constants.StatusCancelled:
			coloredStatus = pterm.Red(tx.Status)
		case constants.StatusErrored:
			coloredStatus = pterm.Magenta(tx.Status)
		default:
			coloredStatus = tx.Status
		}

		tableData = append(tableData, []string{
			time.Unix(tx.CreatedAt, 0).Format(constants.DateFormat),
			tx.RequestID,
			tx.Kind,
			utils.FormatBRL(tx.AmountCents),
			tx.NSU,
			coloredStatus,
			tx.Message,
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}
