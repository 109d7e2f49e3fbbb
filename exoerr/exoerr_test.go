package exoerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exograph/exograph/exoerr"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name          string
		err           *exoerr.Error
		authenticated bool
		want          int
	}{
		{"parse", exoerr.Parse("bad"), false, 400},
		{"validation", exoerr.Validation("bad"), false, 400},
		{"authz anon", exoerr.Authorization(), false, 401},
		{"authz authed", exoerr.Authorization(), true, 403},
		{"expired", exoerr.ExpiredAuthentication(), false, 401},
		{"not found", exoerr.NotFound("venue"), false, 404},
		{"user display", exoerr.UserDisplay("oops"), false, 400},
		{"database", exoerr.Database(errors.New("x")), false, 500},
		{"internal", exoerr.Internal(errors.New("x")), false, 500},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.err.Status(c.authenticated))
		})
	}
}

func TestExpiredAuthenticationRequiresHeader(t *testing.T) {
	e := exoerr.ExpiredAuthentication()
	assert.True(t, e.RequiresWWWAuthenticate())
	assert.False(t, exoerr.Authorization().RequiresWWWAuthenticate())
}

func TestDatabaseMessageHidesDetail(t *testing.T) {
	detail := errors.New("pq: relation does not exist")
	e := exoerr.Database(detail)
	assert.Equal(t, "Internal server error", e.Message)
	assert.ErrorIs(t, e, detail)
}

func TestIs(t *testing.T) {
	err := error(exoerr.Validation("x"))
	assert.True(t, exoerr.Is(err, exoerr.KindValidation))
	assert.False(t, exoerr.Is(err, exoerr.KindDatabase))
}
