package log_v1

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRecordValidate(t *testing.T) {
	for scenario, tc := range map[string]struct {
		name string
		want error
	}{
		"empty":        {name: "", want: nil},
		"short":        {name: "alice", want: nil},
		"max length":   {name: strings.Repeat("a", MaxNameLen), want: nil},
		"too long":     {name: strings.Repeat("a", NameCapacity), want: ErrNameTooLong},
		"embedded nul": {name: "al\x00ice", want: ErrNameInvalid},
	} {
		t.Run(scenario, func(t *testing.T) {
			err := Record{ID: 1, Name: tc.name}.Validate()
			require.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestErrRecordNotFound(t *testing.T) {
	var err error = ErrRecordNotFound{ID: 42}
	require.Contains(t, err.Error(), "record not found: 42")

	st := status.Convert(err)
	require.Equal(t, codes.NotFound, st.Code())
	require.Len(t, st.Details(), 1)
	d, ok := st.Details()[0].(*errdetails.LocalizedMessage)
	require.True(t, ok)
	require.Equal(t, "en-US", d.Locale)

	var nf ErrRecordNotFound
	require.True(t, errors.As(err, &nf))
	require.Equal(t, uint32(42), nf.ID)
}
