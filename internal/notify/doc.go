// Package notify tells subscribers about catalog changes.
//
// A Dispatcher turns one media table change into at most one email per
// matching subscriber. Changes arrive either from the Lambda stream trigger
// or from the stream poller; both decode their images into a Change first.
// Mail goes out through SES, and upload announcements go to an SNS topic.
// When no sender or topic is configured the noop implementations are used,
// so callers never need to check.
package notify
