package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/account"
	"github.com/chimerakang/trackpro-go/internal/testenv"
)

func TestList(t *testing.T) {
	env := testenv.New(t)
	env.LoginAs(t, "u-admin", trackpro.RoleAdmin)
	svc := account.New(env.Client)

	accounts, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "admin", accounts[0].Username)
	require.Equal(t, trackpro.RoleAdmin, accounts[0].Type)
	require.Equal(t, trackpro.AccountActivated, accounts[0].Status)
	require.Empty(t, accounts[0].FirstName)
}

func TestListWithProfile(t *testing.T) {
	env := testenv.New(t)
	env.LoginAs(t, "u-admin", trackpro.RoleAdmin)

	accounts, err := account.New(env.Client).ListWithProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "client", accounts[1].FirstName)
}

func TestList_ClientForbidden(t *testing.T) {
	env := testenv.New(t)
	env.LoginAs(t, "u-client", trackpro.RoleClient)

	_, err := account.New(env.Client).List(context.Background())
	require.Equal(t, 403, trackpro.StatusCode(err))
}
