package onload

func defaultTrigger() Trigger {
	return Async{}
}
