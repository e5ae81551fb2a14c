// Package ui is the presentation boundary of depbump.
//
// Core packages hand structured results and notifications to a Presenter and
// never format terminal output themselves. ConsolePresenter renders results as
// diff text, YAML, or JSON and routes notifications through zap.
package ui
