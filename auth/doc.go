// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth manages remote accounts and the device session.

# Accounts

Accounts live in the remote accounts table. Passwords are stored as bcrypt
hashes. SignUp inserts the account and registers a profile with the same id,
numbering members in sign-up order:

	sess, err := manager.SignUp(ctx, models.SignUpRequest{Email: "anna@example.org", Password: "..."})

# Sessions

A session is a signed HS256 token carrying the profile id and email:

	tokens, _ := auth.NewTokenService(secret, 0)
	claims, err := tokens.Validate(sess.Token)

Only one session is current per device. Listeners registered with OnChange
run synchronously on every SignedIn and SignedOut event, which is how the
migration coordinator learns that a remote account became active.
*/
package auth
