package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentTransitions(t *testing.T) {
	cases := []struct {
		from    ShipmentStatus
		to      ShipmentStatus
		allowed bool
	}{
		{ShipmentDraft, ShipmentPicking, true},
		{ShipmentDraft, ShipmentCompleted, false},
		{ShipmentPending, ShipmentPicking, true},
		{ShipmentPending, ShipmentCompleted, true},
		{ShipmentPicking, ShipmentWeighing, true},
		{ShipmentPicking, ShipmentCompleted, true},
		{ShipmentPicking, ShipmentDraft, false},
		{ShipmentWeighing, ShipmentPicking, true},
		{ShipmentWeighing, ShipmentCompleted, true},
		{ShipmentCompleted, ShipmentPicking, false},
		{ShipmentCompleted, ShipmentPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionToRejectsIllegalMove(t *testing.T) {
	s := &Shipment{Status: ShipmentCompleted}

	err := s.TransitionTo(ShipmentPicking)

	require.Error(t, err)
	assert.Equal(t, ShipmentCompleted, s.Status)
}

func TestProgress(t *testing.T) {
	s := &Shipment{
		Items: []ShipmentItem{
			{ExpectedQty: 5, ScannedQty: 4},
			{ExpectedQty: 5, ScannedQty: 5},
		},
	}

	assert.Equal(t, 10, s.TotalExpected())
	assert.Equal(t, 9, s.TotalScanned())
	assert.Equal(t, 90, s.Progress())
}

func TestProgressEmptyShipmentIsZero(t *testing.T) {
	s := &Shipment{}
	assert.Equal(t, 0, s.Progress())
}

func TestProgressRounds(t *testing.T) {
	s := &Shipment{
		Items: []ShipmentItem{{ExpectedQty: 3, ScannedQty: 2}},
	}
	// 66.66... rounds to 67
	assert.Equal(t, 67, s.Progress())
}

func TestTheoreticalWeight(t *testing.T) {
	p1 := &Product{UnitWeightKg: decimal.RequireFromString("0.250")}
	p2 := &Product{UnitWeightKg: decimal.RequireFromString("1.500")}

	s := &Shipment{
		BoxTareKg: decimal.RequireFromString("0.300"),
		Items: []ShipmentItem{
			{Product: p1, ScannedQty: 4}, // 1.000
			{Product: p2, ScannedQty: 2}, // 3.000
		},
	}

	assert.Equal(t, "4.300", s.TheoreticalWeightKg().StringFixed(3))
}

func TestTheoreticalWeightSkipsUnloadedProducts(t *testing.T) {
	s := &Shipment{
		BoxTareKg: decimal.RequireFromString("0.500"),
		Items:     []ShipmentItem{{ScannedQty: 3}},
	}

	assert.Equal(t, "0.500", s.TheoreticalWeightKg().StringFixed(3))
}
