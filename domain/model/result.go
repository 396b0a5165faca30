package model

import (
	"fmt"
	"strconv"
	"time"
)

// ResultSet is the fetched output of a statement run by a warehouse.
type ResultSet struct {
	// Columns holds the result column names in select order.
	Columns []string
	// Rows holds one slice of scalar values per row.
	Rows [][]any
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// StringRows returns every cell formatted with FormatValue.
func (rs *ResultSet) StringRows() [][]string {
	out := make([][]string, 0, rs.Len())
	if rs == nil {
		return out
	}
	for _, row := range rs.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = FormatValue(v)
		}
		out = append(out, cells)
	}
	return out
}

// FormatValue renders a scalar returned by a database driver or warehouse
// client as a string. NULL becomes the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
