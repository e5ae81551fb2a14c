// Package utils holds the configuration and logging plumbing shared by every
// depbump command: a viper-backed ConfigurationLoader, a zap LoggerFactory,
// and small helpers for command contexts and console output.
package utils
