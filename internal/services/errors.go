package services

import (
	"errors"

	"licensegate/internal/license"
)

func asLicenseError(err error) (*license.Error, bool) {
	var le *license.Error
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
