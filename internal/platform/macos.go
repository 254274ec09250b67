package platform

// getMacOSInfo returns platform-specific information for macOS
func getMacOSInfo(homeDir, username string) *Info {
	return &Info{
		OS:       MacOS,
		HomeDir:  homeDir,
		Username: username,
		ProtectedPaths: append([]string{
			"/",
			"/System",
			"/Library/System",
			"/Applications",
			"/private/etc",
			"/private/var/db",
		}, systemPaths...),
	}
}
