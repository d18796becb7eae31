package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openshelf/loan-ledger/internal/model"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	t.Parallel()
	var d model.Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-10"`), &d))
	require.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), d.Time)

	require.NoError(t, json.Unmarshal([]byte(`"2024-01-10T12:30:00Z"`), &d))
	require.Equal(t, time.Date(2024, 1, 10, 12, 30, 0, 0, time.UTC), d.Time)

	require.Error(t, json.Unmarshal([]byte(`"10.01.2024"`), &d))
}

func TestLoan_Open(t *testing.T) {
	t.Parallel()
	loan := model.Loan{LoanID: 1}
	require.True(t, loan.Open())

	returned := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	loan.ReturnDate = &returned
	require.False(t, loan.Open())
}
