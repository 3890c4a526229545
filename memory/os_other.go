//go:build !linux && !windows

package memory

func osRegions() ([]Region, error) {
	return nil, ErrUnsupported
}

type osProtector struct{}

func (osProtector) Protect(Address, int, Protection) (func() error, error) {
	return nil, ErrUnsupported
}
