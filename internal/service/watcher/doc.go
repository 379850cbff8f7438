// Package watcher reruns an action whenever watched source paths change.
//
// It drives the packager's watch mode: the action runs once up front, then
// filesystem events are debounced into rebuilds. Action failures are logged
// and the loop keeps watching, so a broken commit doesn't end the session.
package watcher
