package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

// addUser updates or creates a user with the given role. Admins get every role.
func (cli *commandLine) addUser(uname, email, pwd, role string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	lookup := uname
	if lookup == "" {
		lookup = email
	}
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: lookup})
	found := err == nil
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return errors.Wrap(err, "finding user")
	}

	now := core.Now()
	if !found {
		usr = user.User{Name: uname, Username: uname, Email: email, CreatedAt: now}
		if usr.Name == "" {
			usr.Name = email
		}
	} else if email != "" {
		usr.Email = email
	}
	usr.Roles = []string{role}
	if role == user.RoleAdmin {
		usr.Roles = append([]string(nil), user.AllRoles...)
	}
	active := true
	usr.IsActive = &active
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}

	if found {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
		return errors.Wrap(err, "updating user")
	}
	_, err = cli.usrRepo.CreateUser(ctx, usr)
	return errors.Wrap(err, "creating user")
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.Now()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}
