package model

// Setting keys persisted in the settings table.
const (
	// SettingDefaultTimezone is the IANA timezone in which all schedule
	// times are interpreted. It is the only input that moves a wall-clock
	// time onto the absolute timeline.
	SettingDefaultTimezone = "default_timezone"
)

// DefaultTimezone applies when the settings table has no override.
const DefaultTimezone = "America/Los_Angeles"
