package cli

import (
	"fmt"

	"taskboard-cli/internal/api"
	"taskboard-cli/internal/state"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// requestError is a failed API call as reported to the terminal.
type requestError struct {
	op  state.Op
	err error
}

func (e requestError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.op, e.err)
	if api.Kind(e.err) == api.KindAuth {
		if e.op == state.OpLogin {
			return msg + " (check username and password)"
		}
		return msg + " (run `taskboard login`)"
	}
	return msg
}

func (e requestError) Unwrap() error { return e.err }

// actionErr turns a RequestFailed completion into an error.
func actionErr(act state.Action) error {
	if rf, ok := act.(state.RequestFailed); ok {
		return requestError{op: rf.Op, err: rf.Err}
	}
	return nil
}
