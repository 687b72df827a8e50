package payment_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/internal/testenv"
	"github.com/chimerakang/trackpro-go/internal/validation"
	"github.com/chimerakang/trackpro-go/payment"
)

func TestAdd(t *testing.T) {
	env := testenv.New(t)
	env.LoginAs(t, "u-admin", trackpro.RoleAdmin)
	svc := payment.New(env.Client)

	pay, err := svc.Add(context.Background(), "p1", "u-client", trackpro.PaymentCreate{Amount: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), pay.ID)
	require.Equal(t, 10.0, pay.Amount)
	require.NotEmpty(t, pay.CreatedAt)

	p, _ := env.Backend.Project("p1")
	status, remaining := payment.Progress(p)
	require.Equal(t, payment.StatusPaid, status)
	require.Zero(t, remaining)
}

func TestAdd_Rejected(t *testing.T) {
	env := testenv.New(t)
	env.LoginAs(t, "u-client", trackpro.RoleClient)
	svc := payment.New(env.Client)

	_, err := svc.Add(context.Background(), "p1", "u-client", trackpro.PaymentCreate{Amount: -1})
	require.ErrorIs(t, err, validation.ErrInvalid)

	_, err = svc.Add(context.Background(), "p1", "u-client", trackpro.PaymentCreate{Amount: 1})
	require.Equal(t, http.StatusForbidden, trackpro.StatusCode(err))
}

func TestTotal(t *testing.T) {
	require.Zero(t, payment.Total(nil))
	require.Equal(t, 7.5, payment.Total([]trackpro.Payment{{Amount: 5}, {Amount: 2.5}}))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		price, paid float64
		want        payment.Status
	}{
		{10, 0, payment.StatusUnpaid},
		{0, 0, payment.StatusUnpaid},
		{10, 4, payment.StatusProgress},
		{10, 10, payment.StatusPaid},
		{10, 12, payment.StatusProgress},
	}
	for _, tt := range tests {
		if got := payment.StatusOf(tt.price, tt.paid); got != tt.want {
			t.Errorf("StatusOf(%v, %v) = %q, want %q", tt.price, tt.paid, got, tt.want)
		}
	}
}
