package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	t.Parallel()
	ret := MustDate("2024-01-10")
	data, err := json.Marshal(Loan{ID: 1, BorrowDate: MustDate("2024-01-01"), ReturnDate: &ret})
	require.NoError(t, err)
	require.Contains(t, string(data), `"borrowDate":"2024-01-01"`)
	require.Contains(t, string(data), `"returnDate":"2024-01-10"`)

	var req ReturnRequest
	require.NoError(t, json.Unmarshal([]byte(`{"returnDate":"2024-02-29"}`), &req))
	require.NotNil(t, req.ReturnDate)
	require.Equal(t, time.UTC, req.ReturnDate.Location())
	require.Equal(t, "2024-02-29", req.ReturnDate.String())

	require.Error(t, json.Unmarshal([]byte(`{"returnDate":"29/02/2024"}`), &req))
}

func TestDate_AddDays(t *testing.T) {
	t.Parallel()
	require.Equal(t, "2024-03-01", MustDate("2024-02-28").AddDays(2).String())
	require.Equal(t, "2024-02-28", DateOf(time.Date(2024, 2, 28, 23, 59, 0, 0, time.UTC)).String())
}
