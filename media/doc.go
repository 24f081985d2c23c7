// Package media hands compositor textures to external frame producers
// such as video decoders and plugins.
//
// A Manager owns one content window, created on the render goroutine the
// first time InitializeIfNeeded runs, and a bounded number of video
// windows requested by producers. A video window moves through
//
//	Idle -> Requested -> Ready -> Acquired -> Idle
//
// RequestNewWindow blocks the producer for a bounded time while the render
// goroutine services the request. A timeout leaves the request pending so
// a later call picks up the window; RequestNewWindowContext and
// CancelWindowRequest withdraw it instead.
//
// Texture ids are only created and deleted on the render goroutine. Work
// that other goroutines need done there is posted to the manager's
// runloop, which the render goroutine drains.
package media
