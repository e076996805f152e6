package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsCSV(t *testing.T) {
	records := []domain.Record{
		{
			Material:    "A1",
			Description: "Aceite, 20L",
			Period:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Forecast:    domain.Float(100),
			Inventory:   domain.Float(40),
			Dispatch:    domain.Float(0),
			Coverage:    domain.Float(12),
			State:       domain.StateCritical,
		},
		{Material: "B2", State: domain.StateNoData},
	}

	g, err := Table(ViewRecords, nil, records)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, g))

	want := "Material,Descripción,Fecha,Origen,FCST,Inv Kg-L,Despachos KL,Cob(D),Q,Prod Kg-L,FCST Act,Estado_Cobertura\n" +
		"A1,\"Aceite, 20L\",2026-01-01,,100,40,0,12,,,,Cob < 45\n" +
		"B2,,,,,,,,,,,Sin Dato\n"
	assert.Equal(t, want, buf.String())
}

func TestWAPEEvolutionCSV(t *testing.T) {
	d := &domain.Dashboard{WAPEEvolution: []domain.WAPEPoint{{
		Period:        time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Forecast:      80,
		Dispatch:      100,
		AbsDiff:       20,
		WAPE:          20,
		UnderForecast: 20,
	}}}

	g, err := Table(ViewWAPEEvolution, d, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, g))
	assert.Equal(t, "Fecha,FCST,Despachos,Dif_Wape_Abs,Wape_%,+Wape,-Wape\n2026-02-01,80,100,20,20,20,0\n", buf.String())
}

func TestEmptyViewHasHeaderOnly(t *testing.T) {
	g, err := Table(ViewOriginWAPE, &domain.Dashboard{}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, g))
	assert.Equal(t, "Origen,FCST,Despachos KL,Dif Wape Abs,Wape (%)\n", buf.String())
}

func TestPlanningUsesMonthNames(t *testing.T) {
	d := &domain.Dashboard{Planning: []domain.PlanningRow{{
		Material: "A1",
		Period:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Forecast: 1.5,
	}}}

	g, err := Table(ViewPlanning, d, nil)
	require.NoError(t, err)
	require.Len(t, g.Rows, 1)
	assert.Equal(t, "March 2026", g.Rows[0][1])
	assert.Equal(t, "1.5", g.Rows[0][2])
}

func TestUnknownView(t *testing.T) {
	_, err := Table("pie_chart", &domain.Dashboard{}, nil)
	assert.True(t, errors.Is(err, ErrUnknownView))
	assert.False(t, IsView("pie_chart"))
}

func TestEveryViewBuilds(t *testing.T) {
	views := Views()
	assert.Len(t, views, 13)
	for _, v := range views {
		assert.True(t, IsView(v))
		g, err := Table(v, &domain.Dashboard{}, nil)
		require.NoError(t, err, v)
		assert.NotEmpty(t, g.Header, v)
		assert.Empty(t, g.Rows, v)
	}
}
