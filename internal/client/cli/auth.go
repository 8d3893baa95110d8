package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) askPassword() (string, error) {
	pw, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Register prompts for username, email and password and creates an
// account. The new account is logged in right away.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.askPassword()
	if err != nil {
		return err
	}

	_, err = a.session.Register(ctx, username, email, password)
	return err
}

// Login prompts for credentials and authenticates. On failure the previous
// session, if any, stays active.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := a.askPassword()
	if err != nil {
		return err
	}

	_, err = a.session.Login(ctx, username, password)
	return err
}

// Logout ends the session. A failed server call is reported, but the local
// session is gone either way.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		fmt.Fprintf(a.out, "Server logout failed (%s); local session cleared.\n", err)
	}
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u := a.session.Snapshot().User
	if u == nil {
		return errNeedLogin
	}
	fmt.Fprintf(a.out, "#%d %s <%s>\n", u.ID, u.Username, u.Email)
	return nil
}
