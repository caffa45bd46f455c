package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func TestWorkbook(t *testing.T) {
	view := &model.AgendaView{
		Range: "today",
		Items: []model.AgendaItem{
			{
				Job: model.Job{
					ID:                    "late",
					JobNumber:             "J-100",
					Title:                 "Window tint",
					VendorID:              "tint-shop",
					DeliveryCoordinatorID: "dc-1",
					CustomerLabel:         "Ana Ruiz",
					VehicleLabel:          "2024 Honda Civic",
				},
				EffectiveStatus: model.JobStatusScheduled,
				DateKey:         "2025-12-31",
				DisplayDate:     "Wed, Dec 31",
				TimeWindow:      "3:00 PM – 4:00 PM",
				Location:        model.LocationInHouse,
				Conflict:        true,
			},
			{
				Job:             model.Job{ID: "promise", JobNumber: "J-101", AssignedTo: "dc-2"},
				EffectiveStatus: model.JobStatusBooked,
				DateKey:         "2025-12-31",
				AllDay:          true,
				Location:        model.LocationOffSite,
			},
		},
	}

	data, err := Workbook(view)
	require.NoError(t, err)
	rows := readRows(t, data)

	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, []string{
		"Wed, Dec 31", "3:00 PM – 4:00 PM", "scheduled", "J-100", "Window tint",
		"Ana Ruiz", "2024 Honda Civic", "tint-shop", "dc-1", "In-House", "yes",
	}, rows[1])

	// Trailing empty cells are trimmed by GetRows.
	assert.Equal(t, "2025-12-31", rows[2][0])
	assert.Equal(t, "All day", rows[2][1])
	assert.Equal(t, "booked", rows[2][2])
	assert.Equal(t, "dc-2", rows[2][8])
	assert.Equal(t, "Off-Site", rows[2][9])
}

func TestWorkbook_EmptyView(t *testing.T) {
	data, err := Workbook(&model.AgendaView{})
	require.NoError(t, err)
	rows := readRows(t, data)
	require.Len(t, rows, 1)
	assert.Equal(t, Headers, rows[0])
}

func TestWrite_NilView(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, Write(&buf, nil))
	assert.Zero(t, buf.Len())
}
