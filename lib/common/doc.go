// Package common provides the logging setup and engine configuration shared by
// the command line tools.
//
// Logging uses the dragonboat logger facade (logger.GetLogger) so every
// package obtains its logger by name; InitLoggers installs a formatter that
// writes "LEVEL | name | message" lines.
package common
