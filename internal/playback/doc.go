// Package playback implements the time cursor that drives earthquake replay.
//
// A [Controller] owns a [State] and at most one [Ticker]. Inputs arrive as
// [Command] values (or the equivalent methods) and every tick moves the
// cursor forward one day:
//
//	Stopped --Play/Toggle--> Playing
//	Playing --Pause/Toggle--> Stopped
//	Playing --tick, cursor > now, !Looping--> Stopped
//	Playing --tick, cursor > now, Looping--> Playing (cursor back to origin)
//
// # Modes
//
// [Cumulative] shows every event up to the cursor. [Window] shows a sliding
// range whose end is the cursor; both bounds move together on each tick.
//
// # Scheduling
//
// [RealScheduler] backs tickers with time.Ticker goroutines, so the
// controller serializes access with a mutex. [ManualScheduler] fires only
// when asked, which keeps scenarios and tests deterministic.
package playback
