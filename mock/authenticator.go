package mock

import (
	"net/http"

	"github.com/sharingd/sharingd"
)

// Authenticator is a mock request authenticator that returns a fixed
// principal.
type Authenticator struct {
	Principal sharingd.Principal
	Err       error
}

func (a *Authenticator) Authenticate(*http.Request) (sharingd.Principal, error) {
	if a.Err != nil {
		return "", a.Err
	}
	return a.Principal, nil
}
