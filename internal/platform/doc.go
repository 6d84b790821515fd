package platform

// Package platform contains OS integration helpers: the default downloads
// location, directory creation, and opening a folder in the system file
// manager.
