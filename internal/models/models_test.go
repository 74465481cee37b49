package models

import "testing"

func TestKeywordPerformanceWinRate(t *testing.T) {
	k := KeywordPerformance{Wins: 3, Losses: 1, Neutrals: 2}

	if got := k.SampleSize(); got != 6 {
		t.Errorf("SampleSize = %d, want 6", got)
	}
	if got := k.WinRate(); got != 0.75 {
		t.Errorf("WinRate = %v, want 0.75 (neutrals excluded)", got)
	}

	empty := KeywordPerformance{}
	if got := empty.WinRate(); got != 0 {
		t.Errorf("WinRate with no decided trades = %v, want 0", got)
	}
}

func TestPositionIsOpen(t *testing.T) {
	p := Position{Status: PositionOpen, Quantity: 10}
	if !p.IsOpen() {
		t.Error("an open position with nonzero quantity must report open")
	}

	p.Quantity = 0
	if p.IsOpen() {
		t.Error("a position with zero quantity must not report open")
	}

	p = Position{Status: PositionClosed, Quantity: 10}
	if p.IsOpen() {
		t.Error("a closed position must not report open")
	}
}

func TestScoredItemExtraAndTags(t *testing.T) {
	s := ScoredItem{Tags: []string{"fda", "clinical"}}

	if !s.HasTag("fda") || s.HasTag("merger") {
		t.Error("HasTag must match exactly the tags present")
	}

	if _, ok := s.Extra("rvol"); ok {
		t.Error("Extra on a nil map must report missing, not panic")
	}
	s.Extras = map[string]any{"rvol": 2.5}
	v, ok := s.Extra("rvol")
	if !ok || v != 2.5 {
		t.Errorf("Extra(rvol) = %v, %v; want 2.5, true", v, ok)
	}
}
