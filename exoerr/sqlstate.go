package exoerr

import (
	"errors"

	"github.com/lib/pq"
)

// FromPostgres maps a driver-level error into the taxonomy (spec.md §4.5:
// "map Postgres SQLSTATEs to taxonomy"). SQLSTATE classes 22 (data
// exception, e.g. invalid input syntax or division by zero) and 23
// (integrity constraint violation) are reported as KindInvalidParams carrying
// the Postgres message, class 28 as KindAuthorization, and every other error
// collapses to KindDatabase so its detail never reaches the client.
func FromPostgres(err error) *Error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22": // data exception
			return &Error{Kind: KindInvalidParams, Message: pqErr.Message, Detail: err}
		case "23": // integrity constraint violation
			return &Error{Kind: KindInvalidParams, Message: pqErr.Message, Detail: err}
		case "28": // invalid authorization specification
			return &Error{Kind: KindAuthorization, Message: "Not authorized", Detail: err}
		default:
			return Database(err)
		}
	}
	return Database(err)
}
