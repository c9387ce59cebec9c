// Package bridge turns an operation that answers through a callback into a
// blocking call with a deadline.
//
// Replies are delivered by a Loop. A caller that is not running on the loop
// blocks until the reply or the deadline. A caller that is itself a loop
// task cannot block (the loop would never deliver the reply), so Call keeps
// running loop iterations until the reply arrives or the deadline passes.
//
// Each Call owns a one-shot result slot. The first of the reply and the
// timeout to complete it wins; anything later is discarded and counted in
// media_inspector_bridge_late_replies_total.
package bridge
