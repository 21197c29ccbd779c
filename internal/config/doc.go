// Package config manages user-level settings stored at ~/.rulesync/config.yaml
// and resolves where the source configs directory lives. Settings include the
// default target tools and whether overwritten files are backed up.
package config
