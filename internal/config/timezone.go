package config

import "time"

// loadLocation resolves an IANA timezone name.
func loadLocation(name string) (*time.Location, error) {
	return time.LoadLocation(name)
}

// Location returns the configured report timezone.
// The name is validated at load time, so failures fall back to UTC.
func (c *ReportsConfig) Location() *time.Location {
	loc, err := loadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
