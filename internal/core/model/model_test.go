package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosedSessionKeepsZeroHoursInJSON(t *testing.T) {
	// A clock-out seconds after clock-in legitimately rounds to 0.00 hours;
	// the field must still appear for closed sessions.
	in := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	out := in.Add(17 * time.Second)
	session := Session{
		ID:           "s-1",
		EmployeeID:   "emp-1",
		ClockInTime:  in,
		ClockOutTime: &out,
		Status:       StatusClosed,
		HoursWorked:  0,
		CreatedAt:    in,
	}

	body, err := json.Marshal(session)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"hoursWorked":0`)
}
