package model

import (
	"errors"
	"testing"
	"time"
)

func TestFormatValue(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "jan", want: "jan"},
		{name: "bytes", in: []byte("raw"), want: "raw"},
		{name: "bool", in: true, want: "true"},
		{name: "int", in: 7, want: "7"},
		{name: "int32", in: int32(-3), want: "-3"},
		{name: "int64", in: int64(2024), want: "2024"},
		{name: "uint64", in: uint64(9), want: "9"},
		{name: "float32", in: float32(1.5), want: "1.5"},
		{name: "float64", in: 10.25, want: "10.25"},
		{name: "whole float64", in: 3.0, want: "3"},
		{name: "time", in: ts, want: "2024-03-01T12:30:00Z"},
		{name: "stringer", in: FileTypeTSV, want: "tsv"},
		{name: "error value", in: errors.New("x"), want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FormatValue(tt.in); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResultSet(t *testing.T) {
	t.Parallel()

	var empty *ResultSet
	if empty.Len() != 0 || len(empty.StringRows()) != 0 {
		t.Error("nil result set should be empty")
	}

	rs := &ResultSet{
		Columns: []string{"region", "jan"},
		Rows:    [][]any{{"eu", int64(10)}, {"us", nil}},
	}
	if rs.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", rs.Len())
	}
	rows := rs.StringRows()
	if !NewRecord(rows[0]).Equal(NewRecord([]string{"eu", "10"})) {
		t.Errorf("unexpected first row %v", rows[0])
	}
	if !NewRecord(rows[1]).Equal(NewRecord([]string{"us", ""})) {
		t.Errorf("unexpected second row %v", rows[1])
	}
}
