package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/pelletier/go-toml/v2"

	"github.com/vango-dev/autoroute"
	"github.com/vango-dev/autoroute/pkg/registrar"
	"github.com/vango-dev/autoroute/pkg/routefile"
)

// classes maps sentinel errors to codes. Order matters: package sentinels
// are checked before the generic fs errors they may wrap.
var classes = []struct {
	target error
	code   string
}{
	{routefile.ErrUnsupportedFormat, "E110"},
	{routefile.ErrInvalidRoute, "E111"},
	{routefile.ErrSyntax, "E112"},
	{registrar.ErrUnknownHandler, "E120"},
	{registrar.ErrUnknownMiddleware, "E121"},
	{registrar.ErrDuplicateName, "E122"},
	{registrar.ErrInvalidPattern, "E123"},
	{registrar.ErrUnknownRoute, "E124"},
	{registrar.ErrMissingParam, "E125"},
	{autoroute.ErrAlreadyBooted, "E126"},
}

// FromError classifies err. An *Error anywhere in the chain is returned
// as is; unknown errors get code E160.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e
	}

	for _, c := range classes {
		if stderrors.Is(err, c.target) {
			e = New(c.code).Wrap(err)
			if c.code == "E112" {
				addDecodeContext(e, err)
			}
			return e
		}
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return New("E140").Wrap(err)
	}

	var pathErr *fs.PathError
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		e = New("E100").Wrap(err)
	case stderrors.Is(err, fs.ErrPermission):
		e = New("E101").Wrap(err)
	default:
		return New("E160").Wrap(err)
	}
	if stderrors.As(err, &pathErr) {
		e.Location = &Location{File: pathErr.Path}
	}
	return e
}

// addDecodeContext copies the TOML decoder's highlighted excerpt.
func addDecodeContext(e *Error, err error) {
	var de *toml.DecodeError
	if !stderrors.As(err, &de) {
		return
	}
	row, col := de.Position()
	e.WithContext(strings.Split(strings.TrimRight(de.String(), "\n"), "\n"), 0)
	e.Detail = fmt.Sprintf("%s The decoder stopped at line %d, column %d.", e.Detail, row, col)
}
