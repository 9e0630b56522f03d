// Package looper records freehand marks over a fixed cycle and replays them
// every cycle, and exports a ping-pong clip of one cycle played forward then
// backward.
//
// The looper does not run its own animation loop. The caller invokes Tick
// once per display refresh, like Engine.Step in the root package.
package looper
