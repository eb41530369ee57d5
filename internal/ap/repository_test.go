package ap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttachLinesGroupsByInvoice(t *testing.T) {
	invoices := []Invoice{{ID: 1}, {ID: 2}, {ID: 3}}
	lines := []InvoiceLine{
		{ID: 10, InvoiceID: 1, TotalAmount: money("100")},
		{ID: 11, InvoiceID: 2, TotalAmount: money("200")},
		{ID: 12, InvoiceID: 1, TotalAmount: money("300")},
	}

	out := attachLines(invoices, lines)

	require.Len(t, out, 3)
	require.Len(t, out[0].Lines, 2)
	require.Equal(t, int64(10), out[0].Lines[0].ID)
	require.Equal(t, int64(12), out[0].Lines[1].ID)
	require.Len(t, out[1].Lines, 1)
	require.Equal(t, int64(11), out[1].Lines[0].ID)
	require.Empty(t, out[2].Lines)
}
