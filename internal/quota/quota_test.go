package quota

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fixedReader struct {
	usage Usage
	err   error
}

func (f fixedReader) Usage(context.Context, uuid.UUID, Resource) (Usage, error) {
	return f.usage, f.err
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()

	tests := []struct {
		name  string
		usage Usage
		want  error
	}{
		{"below cap", Usage{Count: 2, Limit: 3}, nil},
		{"at cap", Usage{Count: 3, Limit: 3}, ErrExceeded},
		{"above cap", Usage{Count: 4, Limit: 3}, ErrExceeded},
		{"zero cap", Usage{Count: 0, Limit: 0}, ErrExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Enforce(ctx, fixedReader{usage: tt.usage}, tenant, Users)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestEnforce_ReaderError(t *testing.T) {
	boom := errors.New("boom")
	err := Enforce(context.Background(), fixedReader{err: boom}, uuid.New(), Projects)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrExceeded)
}
