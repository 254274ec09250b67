package platform

// getLinuxInfo returns platform-specific information for Linux
func getLinuxInfo(homeDir, username string) *Info {
	return &Info{
		OS:       Linux,
		HomeDir:  homeDir,
		Username: username,
		ProtectedPaths: append([]string{
			"/",
			"/run",
			"/snap",
		}, systemPaths...),
	}
}
