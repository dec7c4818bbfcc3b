// internal/ua/ua.go
//
// User-Agent parsing for the access log.
//
// This wrapper keeps `github.com/avct/uasurfer` enums out of the rest of
// the code.  The console is an operator tool, so the interesting question
// is which browser and OS an operator used when a delete went through.
package ua

import (
	"fmt"
	"strconv"

	surfer "github.com/avct/uasurfer"
)

// Info is the parsed subset we log.
//
// Example (Firefox on Linux):
//
//	Browser   "BrowserFirefox"
//	Version   "128"
//	OS        "OSLinux"
//	Device    "Desktop"
type Info struct {
	Browser   string
	Version   string
	OS        string
	OSVersion string
	Device    string
	IsBot     bool
}

// Parse converts a raw header into an Info.
func Parse(raw string) Info {
	if raw == "" {
		return Info{Device: "Other"}
	}
	u := surfer.Parse(raw)

	info := Info{
		Browser:   u.Browser.Name.StringTrimPrefix(),
		Version:   versionString(u.Browser.Version),
		OS:        u.OS.Name.StringTrimPrefix(),
		OSVersion: versionString(u.OS.Version),
		IsBot:     u.IsBot(),
	}

	switch u.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
	return info
}

// Summary renders "Firefox 128 / Linux" for a single log field.
func (i Info) Summary() string {
	b := i.Browser
	if i.Version != "" {
		b += " " + i.Version
	}
	if i.OS == "" {
		return b
	}
	return b + " / " + i.OS
}

// versionString trims trailing zero components: 17.0.0 → "17".
func versionString(v surfer.Version) string {
	switch {
	case v.Major == 0 && v.Minor == 0 && v.Patch == 0:
		return ""
	case v.Patch != 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	case v.Minor != 0:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(v.Major)
}
