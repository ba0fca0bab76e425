package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestAttempt(t *testing.T) {
	cases := []struct {
		name         string
		tries        int
		succeedOn    int
		expectCalls  int
		expectResult string
		expectErr    bool
	}{
		{name: "first try", tries: 3, succeedOn: 1, expectCalls: 1, expectResult: "ok"},
		{name: "last try", tries: 3, succeedOn: 3, expectCalls: 3, expectResult: "ok"},
		{name: "exhausted", tries: 3, succeedOn: 10, expectCalls: 3, expectErr: true},
		{name: "zero tries still runs once", tries: 0, succeedOn: 1, expectCalls: 1, expectResult: "ok"},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			calls := 0
			result, err := Attempt(context.Background(), test.tries, time.Millisecond, func(attempt int) (string, error) {
				calls++
				require.Equal(t, calls, attempt)
				if attempt >= test.succeedOn {
					return "ok", nil
				}
				return "", errFlaky
			})

			require.Equal(t, test.expectCalls, calls)
			if test.expectErr {
				require.ErrorIs(t, err, errFlaky)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expectResult, result)
		})
	}
}

func TestAttemptPermanent(t *testing.T) {
	calls := 0
	_, err := Attempt(context.Background(), 5, time.Millisecond, func(int) (int, error) {
		calls++
		return 0, Permanent(errFlaky)
	})
	require.Equal(t, 1, calls)
	require.ErrorIs(t, err, errFlaky)
}

func TestAttemptCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Attempt(ctx, 5, time.Hour, func(int) (int, error) {
		calls++
		return 0, errFlaky
	})
	require.Error(t, err)
	require.LessOrEqual(t, calls, 1)
}

func TestAttemptNotify(t *testing.T) {
	var notified []int
	_, err := AttemptNotify(
		context.Background(), 3, time.Millisecond,
		func(attempt int) (int, error) {
			if attempt == 3 {
				return 1, nil
			}
			return 0, errFlaky
		},
		func(attempt int, err error) {
			require.ErrorIs(t, err, errFlaky)
			notified = append(notified, attempt)
		},
	)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, notified)
}
