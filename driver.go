package serialmon

import (
	"fmt"
	"sort"
	"sync"
)

const (
	DriverBugst   = "bugst"
	DriverAlbenik = "albenik"
	DriverTarm    = "tarm"

	DefaultDriver = DriverBugst
)

var (
	driversMu sync.RWMutex
	drivers   = map[string]Opener{
		DriverBugst:   openBugst,
		DriverAlbenik: openAlbenik,
		DriverTarm:    openTarm,
	}
)

// RegisterDriver makes an Opener available under name, replacing any
// existing registration.
func RegisterDriver(name string, open Opener) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = open
}

// LookupDriver returns the Opener registered under name.
func LookupDriver(name string) (Opener, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	open, ok := drivers[name]
	if !ok || open == nil {
		return nil, fmt.Errorf("%w %q, must be one of: %v", ErrUnknownDriver, name, driverNamesLocked())
	}
	return open, nil
}

// Drivers lists the registered driver names in sorted order.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return driverNamesLocked()
}

func driverNamesLocked() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
