// Package notify delivers bill reminders over push notifications and chat.
//
// Both channels are best effort: invalid destinations are skipped, every
// outbound call gets its own deadline, and a failed call never stops the
// calls after it.
package notify

// Report summarizes one channel's dispatch.
type Report struct {
	Channel     string
	Attempted   int // reminders handed to the channel
	Delivered   int
	Skipped     int
	Failed      int
	Submissions int // outbound calls made
}
