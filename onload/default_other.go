//go:build !windows

package onload

func defaultTrigger() Trigger {
	return Sync{}
}
