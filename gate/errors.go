package gate

import "errors"

// Sentinel errors returned by Gate.Authorize.
// ErrMissingPermission and ErrPolicyDenied both match ErrUnauthorized with errors.Is.
var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrNoPolicyDefined         = errors.New("no policy defined for resource")
	ErrMissingPermission error = &denial{reason: "missing permission"}
	ErrPolicyDenied      error = &denial{reason: "denied by resource policy"}
)

type denial struct{ reason string }

func (d *denial) Error() string { return "unauthorized: " + d.reason }

// Is lets errors.Is(err, ErrUnauthorized) hold for every denial.
func (d *denial) Is(target error) bool { return target == ErrUnauthorized }
