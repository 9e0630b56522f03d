// Package capture records exactly one animation cycle to a video file.
//
// A [Controller] moves between two states. Start opens a [Sink], forces the
// animation on, and remembers whether it was running. Tick, called once per
// rendered frame, pushes frames at 30 fps and samples progress every
// 100 ms; once a full cycle has elapsed the sink is finalized on its own
// goroutine and the result is delivered on the [Handle]. Recording stops on
// elapsed time, not on a frame count, so the clip length tracks the cycle
// duration even when frames are dropped.
package capture
