// Package team exposes GitHub organisation team operations: listing teams,
// members, repositories, branches and pull requests, changing memberships,
// and cloning every team repository with go-git.
package team
