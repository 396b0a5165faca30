package pivotsql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ctx     *ErrorContext
		baseErr error
		want    string
	}{
		{
			name:    "operation only",
			ctx:     NewErrorContext("discover values"),
			baseErr: ErrDiscovery,
			want:    "pivotsql: discover values failed: pivotsql: discovery error",
		},
		{
			name:    "all fields",
			ctx:     NewErrorContext("discover values").WithColumn("month").WithTable("ds.sales").WithDetails("%d rows", 0),
			baseErr: ErrDiscovery,
			want:    "pivotsql: discover values failed, column: month, table: ds.sales, details: 0 rows: pivotsql: discovery error",
		},
		{
			name: "no base error",
			ctx:  NewErrorContext("write").WithDetails("disk full"),
			want: "pivotsql: write failed, details: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.ctx.Error(tt.baseErr)
			assert.EqualError(t, err, tt.want)
			if tt.baseErr != nil {
				assert.True(t, errors.Is(err, tt.baseErr))
			}
		})
	}
}

func TestErrorContext_Wrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewErrorContext("discover values").WithTable("ds.t").Wrap(ErrDiscovery, cause)

	assert.True(t, errors.Is(err, ErrDiscovery))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrConfiguration))
	assert.EqualError(t, err, "pivotsql: discover values failed, table: ds.t: pivotsql: discovery error: connection reset")
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	err := configError("validate spec", "column %q listed twice", "a")
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), `details: column "a" listed twice`)
}
