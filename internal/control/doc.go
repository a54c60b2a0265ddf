// Package control adapts UI inputs to playback commands.
//
// A [Surface] wraps a [playback.Controller] and exposes the five inputs a
// map page offers:
//
//   - play/pause button: [Surface.PlayButton]
//   - speed slider: [Surface.SpeedSlider] (interval = 2000 - value)
//   - loop checkbox: [Surface.LoopCheckbox]
//   - time-range slider: [Surface.TimeRange] (days ago)
//   - timeline: [Surface.Timeline] (absolute epoch ms)
//
// # Usage
//
//	s := control.NewSurface(ctrl)
//	s.SpeedSlider(1500)               // 500 ms per tick
//	_ = s.Handle(control.Input{Control: "loop", Value: "true"})
//
// Generic [Input] messages are what the HTTP surface and scripted scenarios
// send.
package control
